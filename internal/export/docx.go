package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gomutex/godocx"

	"maintrack/internal/core"
)

// DocxRenderer writes the record as a Word document built on godocx's
// default template.
type DocxRenderer struct{}

func (DocxRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}
func (DocxRenderer) Extension() string { return "docx" }

func (DocxRenderer) Render(rec core.MaintenanceRecord) ([]byte, error) {
	money := core.FormatCurrency

	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	if _, err := doc.AddHeading("Maintenance Record Report", 0); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	doc.AddParagraph("Period: " + rec.Period.Label())
	doc.AddParagraph("Collector: " + rec.CollectorName)
	doc.AddParagraph("").AddText("Grand Total: " + money(rec.GrandTotal)).Bold(true)

	if _, err := doc.AddHeading("Tenant Payments:", 1); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	for _, p := range rec.Payments {
		doc.AddParagraph(paymentLine(p, money))
	}

	if _, err := doc.AddHeading("Expense Particulars:", 1); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	for _, p := range rec.Particulars {
		doc.AddParagraph(particularLine(p, money))
		if p.Description != "" {
			doc.AddParagraph("  " + p.Description)
		}
	}

	dir, err := os.MkdirTemp("", "maintrack-docx-")
	if err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "record.docx")
	if err := doc.SaveTo(path); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	return os.ReadFile(path)
}
