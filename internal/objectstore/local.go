package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"maintrack/internal/ports"
)

// LocalStore keeps objects on disk under a base directory. The HTTP server
// serves that directory, so URLs are publicBaseURL joined with the name.
type LocalStore struct {
	dir           string
	publicBaseURL string
}

var _ ports.ObjectStore = (*LocalStore)(nil)

func NewLocalStore(dir, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}
	return &LocalStore{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Dir is the directory served under the public base URL.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(ctx context.Context, name, _ string, body io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	// write to a temp file first so readers never see a partial object
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("store object %s: %w", name, err)
	}

	slog.DebugContext(ctx, "Stored object", "object", name, "bytes", n)
	return s.publicBaseURL + "/" + name, nil
}
