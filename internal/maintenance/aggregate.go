// Package maintenance turns a tenant roster and a list of expense
// particulars into per-tenant payments and a grand total, and reduces a
// record history into the aggregates shown by the analytics views.
//
// Every function here is pure: callers hand in snapshots and get new
// values back. Nothing is logged, stored or mutated in place.
package maintenance

import (
	"iter"
	"math"
	"slices"
	"strings"

	"maintrack/internal/core"
)

// Split is the result of dividing the expense total among active tenants.
type Split struct {
	PerTenant  float64
	Payments   []core.Payment
	GrandTotal float64
}

// ExpenseTotal sums particular prices. An empty list totals 0.
func ExpenseTotal(particulars []core.Particular) float64 {
	var total float64
	for _, p := range particulars {
		total += p.Price
	}
	return total
}

// ActiveTenants keeps only the roster entries that take part in a split.
// A tenant listed twice is kept once.
func ActiveTenants(tenants []core.Tenant) []core.Tenant {
	out := make([]core.Tenant, 0, len(tenants))
	seen := make(map[string]struct{}, len(tenants))
	for _, t := range tenants {
		if !t.CountsTowardCap() {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// AutoSplit divides the expense total equally among the active, non-owner
// tenants of the roster. Each payment starts as pending. The grand total is
// the expense total itself, not the re-summed shares.
//
// An empty split roster returns core.ErrNoTenants.
func AutoSplit(tenants []core.Tenant, particulars []core.Particular) (Split, error) {
	active := ActiveTenants(tenants)
	if len(active) == 0 {
		return Split{}, core.ErrNoTenants
	}

	total := ExpenseTotal(particulars)
	per := total / float64(len(active))

	payments := make([]core.Payment, 0, len(active))
	for _, t := range active {
		payments = append(payments, core.Payment{
			TenantID:   t.ID,
			TenantName: t.Name,
			Amount:     per,
			Status:     core.PaymentPending,
		})
	}

	return Split{PerTenant: per, Payments: payments, GrandTotal: total}, nil
}

// ManualTotal adds manually entered payments to the expense total. The two
// halves are independent; no cross-check is made between them.
func ManualTotal(payments []core.Payment, particulars []core.Particular) float64 {
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	return sum + ExpenseTotal(particulars)
}

// FilterForPersistence drops unfinished form rows: payments with a
// non-positive amount and particulars without a name or with a
// non-positive price. Inputs are not modified.
func FilterForPersistence(payments []core.Payment, particulars []core.Particular) ([]core.Payment, []core.Particular) {
	keptPayments := make([]core.Payment, 0, len(payments))
	for _, p := range payments {
		if p.Amount > 0 {
			keptPayments = append(keptPayments, p)
		}
	}

	keptParticulars := make([]core.Particular, 0, len(particulars))
	for _, p := range particulars {
		if strings.TrimSpace(p.Name) != "" && p.Price > 0 {
			keptParticulars = append(keptParticulars, p)
		}
	}

	return keptPayments, keptParticulars
}

// MonthlyTrend yields (period label, grand total) pairs in ascending
// chronological order for a newest-first record history.
func MonthlyTrend(records []core.MaintenanceRecord) iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		for i := len(records) - 1; i >= 0; i-- {
			r := records[i]
			if !yield(r.Period.Label(), r.GrandTotal) {
				return
			}
		}
	}
}

// TrendPoints collects MonthlyTrend into a slice.
func TrendPoints(records []core.MaintenanceRecord) []core.TrendPoint {
	points := make([]core.TrendPoint, 0, len(records))
	for label, total := range MonthlyTrend(records) {
		points = append(points, core.TrendPoint{Label: label, Total: total})
	}
	return points
}

// TenantWiseTotals returns exactly one entry per roster tenant, in roster
// order, summing that tenant's payments over every record.
func TenantWiseTotals(tenants []core.Tenant, records []core.MaintenanceRecord) []core.TenantTotal {
	byTenant := make(map[string]float64)
	for _, r := range records {
		for _, p := range r.Payments {
			byTenant[p.TenantID] += p.Amount
		}
	}

	out := make([]core.TenantTotal, len(tenants))
	for i, t := range tenants {
		out[i] = core.TenantTotal{TenantID: t.ID, Name: t.Name, Total: byTenant[t.ID]}
	}
	return out
}

// Summarize computes the headline statistics for a newest-first history.
// An empty history yields zeros; the trend needs at least two records and
// its percentage needs a positive previous total.
func Summarize(records []core.MaintenanceRecord) core.Summary {
	s := core.Summary{Records: len(records)}
	for _, r := range records {
		s.TotalCollected += r.GrandTotal
	}
	if len(records) > 0 {
		s.AverageMonthly = s.TotalCollected / float64(len(records))
	}
	if len(records) < 2 {
		return s
	}

	latest, previous := records[0].GrandTotal, records[1].GrandTotal
	trend := &core.Trend{Direction: core.TrendDown}
	if latest > previous {
		trend.Direction = core.TrendUp
	}
	if previous > 0 {
		trend.Percent = math.Abs(latest-previous) / previous * 100
		trend.HasPercent = true
	}
	s.Trend = trend
	return s
}

// SortNewestFirst orders records by year desc, month desc in place.
func SortNewestFirst(records []core.MaintenanceRecord) {
	slices.SortStableFunc(records, func(a, b core.MaintenanceRecord) int {
		switch {
		case b.Period.Before(a.Period):
			return -1
		case a.Period.Before(b.Period):
			return 1
		}
		return 0
	})
}
