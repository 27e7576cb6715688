package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"maintrack/internal/core"
	ports "maintrack/internal/sheets"
)

// ledgerHeader is the expected first row of the ledger sheet.
var ledgerHeader = []string{"Record", "Month", "Year", "Period", "Collector", "Grand Total", "Payments", "Particulars", "Report", "Logged At"}

const lastColumn = "J"

func ledgerValues(r ports.LedgerRow) []any {
	return []any{
		r.RecordID,
		r.Period.Month,
		r.Period.Year,
		r.Period.Label(),
		r.CollectorName,
		r.GrandTotal,
		r.Payments,
		r.Particulars,
		r.ReportURL,
		r.LoggedAt.UTC().Format(time.RFC3339),
	}
}

// parseLedger converts a values matrix into ledger rows of the given year.
// Rows with an unreadable month or year are skipped; a header that does
// not start with "Record" is an error.
func parseLedger(values [][]any, year int) ([]ports.LedgerRow, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	if indexOf(headers, ledgerHeader[0]) != 0 {
		return nil, fmt.Errorf("unexpected ledger header: got headers=%v", headers)
	}

	var out []ports.LedgerRow
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		month, errM := strconv.Atoi(safeGet(row, 1))
		y, errY := strconv.Atoi(safeGet(row, 2))
		if errM != nil || errY != nil {
			continue
		}
		if year != 0 && y != year {
			continue
		}
		total, _ := parseLedgerAmount(safeGet(row, 5))
		payments, _ := strconv.Atoi(safeGet(row, 6))
		particulars, _ := strconv.Atoi(safeGet(row, 7))
		logged, _ := time.Parse(time.RFC3339, safeGet(row, 9))
		out = append(out, ports.LedgerRow{
			RecordID:      safeGet(row, 0),
			Period:        core.Period{Month: month, Year: y},
			CollectorName: safeGet(row, 4),
			GrandTotal:    total,
			Payments:      payments,
			Particulars:   particulars,
			ReportURL:     safeGet(row, 8),
			LoggedAt:      logged,
		})
	}
	return out, nil
}

// parseLedgerAmount reads raw numbers as well as "₹1,234.50" display values.
func parseLedgerAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, core.CurrencySymbol)
	s = strings.ReplaceAll(s, ",", "")
	v, err := core.ParseAmount(s)
	return v, err == nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(v, target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
