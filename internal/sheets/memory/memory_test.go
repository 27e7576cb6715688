package memory

import (
	"context"
	"testing"
	"time"

	"maintrack/internal/core"
	ports "maintrack/internal/sheets"
)

func TestLedger(t *testing.T) {
	l := New()
	ctx := context.Background()

	ref, err := l.AppendLedgerRow(ctx, ports.RowFromRecord(core.MaintenanceRecord{
		ID:       "r1",
		Period:   core.Period{Month: 1, Year: 2024},
		Payments: []core.Payment{{TenantID: "a"}, {TenantID: "b"}},
	}, "u", time.Now()))
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append result %q %v", ref, err)
	}
	if _, err := l.AppendLedgerRow(ctx, ports.LedgerRow{RecordID: "r2", Period: core.Period{Month: 2, Year: 2023}}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AppendLedgerRow(ctx, ports.LedgerRow{}); err == nil {
		t.Fatal("expected error for row without record id")
	}

	rows, _ := l.ListLedger(ctx, 2024)
	if len(rows) != 1 || rows[0].Payments != 2 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	all, _ := l.ListLedger(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
}
