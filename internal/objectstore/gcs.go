package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"

	"maintrack/internal/ports"
)

// GCSStore uploads objects to a Google Cloud Storage bucket with public
// read object URLs.
type GCSStore struct {
	svc    *gstorage.Service
	bucket string
}

var _ ports.ObjectStore = (*GCSStore)(nil)

// NewGCSStore creates the store. With nil credentials the client falls back
// to application default credentials; extra options override both.
func NewGCSStore(ctx context.Context, bucket string, credentialsJSON []byte, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("missing GCS_BUCKET")
	}
	all := []option.ClientOption{option.WithScopes(gstorage.DevstorageReadWriteScope)}
	if len(credentialsJSON) > 0 {
		all = append(all, option.WithCredentialsJSON(credentialsJSON))
	}
	all = append(all, opts...)

	svc, err := gstorage.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSStore{svc: svc, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	obj := &gstorage.Object{Name: name, ContentType: contentType}
	if _, err := s.svc.Objects.Insert(s.bucket, obj).Media(body).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("upload %s to %s: %w", name, s.bucket, err)
	}
	return s.PublicURL(name), nil
}

func (s *GCSStore) PublicURL(name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name)
}
