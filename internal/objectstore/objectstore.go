// Package objectstore stores receipt uploads and archived reports and
// hands back public URLs for them.
package objectstore

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxReceiptBytes bounds a single receipt upload.
const MaxReceiptBytes = 10 << 20

var ErrInvalidName = errors.New("invalid object name")

// ReceiptName returns a collision-free object name that keeps the
// extension of the uploaded file: receipts/{uuid}.{ext}.
func ReceiptName(original string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(original), "."))
	if ext == "" {
		ext = "bin"
	}
	return "receipts/" + uuid.NewString() + "." + ext
}

// ReportName is where the worker archives a record's PDF.
func ReportName(filename string) string {
	return "reports/" + filename
}

// IsAllowedReceipt accepts images and PDFs.
func IsAllowedReceipt(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}

// cleanName validates a slash-separated object name.
func cleanName(name string) (string, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || name == "." || !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", ErrInvalidName
	}
	return name, nil
}
