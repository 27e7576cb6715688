package core

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
)

// TrendDirection compares the latest record against the previous one.
type TrendDirection string

// TrendPoint is one (period label, grand total) pair of a chart series.
type TrendPoint struct {
	Label string
	Total float64
}

// TenantTotal is the sum of a tenant's payments across a record history.
type TenantTotal struct {
	TenantID string
	Name     string
	Total    float64
}

// Trend is only produced when at least two records exist.
type Trend struct {
	Direction TrendDirection
	// Percent is |latest-previous|/previous*100; meaningful only when
	// HasPercent is set (previous > 0).
	Percent    float64
	HasPercent bool
}

// Summary is the headline block of the analytics view.
type Summary struct {
	TotalCollected float64
	AverageMonthly float64
	Records        int
	Trend          *Trend
}
