// Package memory is an in-process ledger used when no spreadsheet is
// configured and by the worker tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	ports "maintrack/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows []ports.LedgerRow
}

var (
	_ ports.LedgerWriter = (*Ledger)(nil)
	_ ports.LedgerReader = (*Ledger)(nil)
)

func New() *Ledger {
	return &Ledger{}
}

// AppendLedgerRow stores the row and returns a synthetic row reference.
func (l *Ledger) AppendLedgerRow(_ context.Context, row ports.LedgerRow) (string, error) {
	if row.RecordID == "" {
		return "", errors.New("ledger row without record id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, row)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

func (l *Ledger) ListLedger(_ context.Context, year int) ([]ports.LedgerRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if year == 0 {
		return slices.Clone(l.rows), nil
	}
	var out []ports.LedgerRow
	for _, r := range l.rows {
		if r.Period.Year == year {
			out = append(out, r)
		}
	}
	return out, nil
}
