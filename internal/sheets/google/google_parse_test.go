package google

import (
	"testing"
	"time"

	"maintrack/internal/core"
	ports "maintrack/internal/sheets"
)

func TestLedgerValuesRoundTrip(t *testing.T) {
	row := ports.LedgerRow{
		RecordID:      "r1",
		Period:        core.Period{Month: 3, Year: 2024},
		CollectorName: "Vanaja",
		GrandTotal:    1234.5,
		Payments:      4,
		Particulars:   2,
		ReportURL:     "https://example.com/r.pdf",
		LoggedAt:      time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC),
	}
	vals := ledgerValues(row)
	if len(vals) != len(ledgerHeader) {
		t.Fatalf("expected %d values, got %d", len(ledgerHeader), len(vals))
	}
	if vals[3] != "Mar 2024" {
		t.Fatalf("expected period label, got %v", vals[3])
	}

	header := make([]any, len(ledgerHeader))
	for i, h := range ledgerHeader {
		header[i] = h
	}
	got, err := parseLedger([][]any{header, vals}, 2024)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 1 || got[0] != row {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestParseLedger(t *testing.T) {
	values := [][]any{
		{"Record", "Month", "Year"},
		{"a", "1", "2024", "Jan 2024", "c", "₹1,000.00", "2", "1"},
		{"b", "12", "2023", "Dec 2023", "c", 500.0, "2", "1"},
		{"junk", "x", "2024"},
	}

	got, err := parseLedger(values, 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].RecordID != "a" || got[0].GrandTotal != 1000 {
		t.Fatalf("unexpected rows: %+v", got)
	}

	all, err := parseLedger(values, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[1].GrandTotal != 500 {
		t.Fatalf("unexpected rows: %+v", all)
	}

	if _, err := parseLedger([][]any{{"Month", "Record"}}, 0); err == nil {
		t.Fatal("expected header error")
	}
	if rows, err := parseLedger(nil, 0); err != nil || rows != nil {
		t.Fatalf("empty sheet should yield nothing, got %v %v", rows, err)
	}
}
