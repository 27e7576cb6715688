// Package sheets declares the spreadsheet ledger the worker appends one row
// per maintenance record to.
package sheets

import (
	"context"
	"time"

	"maintrack/internal/core"
)

// LedgerRow is one line of the maintenance ledger spreadsheet.
type LedgerRow struct {
	RecordID      string
	Period        core.Period
	CollectorName string
	GrandTotal    float64
	Payments      int
	Particulars   int
	ReportURL     string
	LoggedAt      time.Time
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		AppendLedgerRow(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}

	LedgerReader interface {
		// ListLedger returns the rows of one year; 0 returns every row.
		ListLedger(ctx context.Context, year int) ([]LedgerRow, error)
	}
)

// RowFromRecord builds the ledger row for a stored record.
func RowFromRecord(rec core.MaintenanceRecord, reportURL string, now time.Time) LedgerRow {
	return LedgerRow{
		RecordID:      rec.ID,
		Period:        rec.Period,
		CollectorName: rec.CollectorName,
		GrandTotal:    rec.GrandTotal,
		Payments:      len(rec.Payments),
		Particulars:   len(rec.Particulars),
		ReportURL:     reportURL,
		LoggedAt:      now.UTC(),
	}
}
