package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"maintrack/internal/core"
)

// XLSXRenderer writes a workbook with Summary, Payments and Particulars
// sheets. Amounts are stored as numbers with a two-decimal format.
type XLSXRenderer struct{}

func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXRenderer) Extension() string { return "xlsx" }

const (
	sheetSummary     = "Summary"
	sheetPayments    = "Payments"
	sheetParticulars = "Particulars"
)

func (XLSXRenderer) Render(rec core.MaintenanceRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetPayments, sheetParticulars} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	numFmt := "#,##0.00"
	amount, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("amount style: %w", err)
	}

	summary := [][]any{
		{"Maintenance Record Report"},
		{"Period", rec.Period.Label()},
		{"Collector", rec.CollectorName},
		{"Grand Total", rec.GrandTotal},
	}
	if !rec.CreatedAt.IsZero() {
		summary = append(summary, []any{"Created", rec.CreatedAt.Format("2006-01-02 15:04")})
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(sheetSummary, "A1", "A1", header)
	_ = f.SetCellStyle(sheetSummary, "B4", "B4", amount)
	_ = f.SetColWidth(sheetSummary, "A", "A", 16)
	_ = f.SetColWidth(sheetSummary, "B", "B", 28)

	payments := [][]any{{"Tenant", "Amount", "Status"}}
	for _, p := range rec.Payments {
		name := p.TenantName
		if name == "" {
			name = p.TenantID
		}
		payments = append(payments, []any{name, p.Amount, string(p.Status)})
	}
	if err := writeTable(f, sheetPayments, payments, header, amount, "B"); err != nil {
		return nil, err
	}

	particulars := [][]any{{"Item", "Price", "Type", "Description", "Receipt"}}
	for _, p := range rec.Particulars {
		particulars = append(particulars, []any{p.Name, p.Price, string(p.Category), p.Description, p.ReceiptURL})
	}
	if err := writeTable(f, sheetParticulars, particulars, header, amount, "B"); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, rows [][]any, header, amount int, amountCol string) error {
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", header); err != nil {
		return err
	}
	if len(rows) > 1 {
		end := fmt.Sprintf("%s%d", amountCol, len(rows))
		if err := f.SetCellStyle(sheet, amountCol+"2", end, amount); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", last, 18)
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
