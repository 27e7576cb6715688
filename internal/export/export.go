// Package export renders maintenance records into downloadable documents.
//
// Each format is a Renderer registered under its file extension. Handlers
// and the worker look renderers up with ForFormat and never depend on a
// concrete format.
package export

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"maintrack/internal/core"
)

// ErrUnknownFormat is returned by ForFormat for unregistered formats.
var ErrUnknownFormat = errors.New("unknown export format")

// Renderer turns a fully populated record into a document.
type Renderer interface {
	Render(rec core.MaintenanceRecord) ([]byte, error)
	ContentType() string
	Extension() string
}

var (
	mu        sync.RWMutex
	renderers = map[string]Renderer{
		"pdf":  PDFRenderer{},
		"docx": DocxRenderer{},
		"xlsx": XLSXRenderer{},
	}
)

// ForFormat returns the renderer for a format name such as "pdf".
func ForFormat(format string) (Renderer, error) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := renderers[strings.ToLower(strings.TrimPrefix(format, "."))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return r, nil
}

// Register adds or replaces the renderer for its extension.
func Register(r Renderer) {
	mu.Lock()
	defer mu.Unlock()
	renderers[r.Extension()] = r
}

// Formats lists the registered format names.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(renderers))
	for k := range renderers {
		out = append(out, k)
	}
	return out
}

// Filename is the download name of a single record document.
func Filename(rec core.MaintenanceRecord, ext string) string {
	return fmt.Sprintf("maintenance-%d-%d.%s", rec.Period.Month, rec.Period.Year, ext)
}

// ListFilename is the download name of the all-records report.
const ListFilename = "all-maintenance-records.pdf"

func paymentLine(p core.Payment, money func(float64) string) string {
	name := p.TenantName
	if name == "" {
		name = p.TenantID
	}
	return fmt.Sprintf("%s: %s - %s", name, money(p.Amount), p.Status)
}

func particularLine(p core.Particular, money func(float64) string) string {
	return fmt.Sprintf("%s: %s (%s)", p.Name, money(p.Price), p.Category)
}
