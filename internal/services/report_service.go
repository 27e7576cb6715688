package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"maintrack/internal/cache"
	"maintrack/internal/core"
	"maintrack/internal/maintenance"
	"maintrack/internal/metrics"
	"maintrack/internal/ports"
)

const (
	analyticsWindow = 12
	recentRecords   = 5
	analyticsKey    = "analytics"
)

// Analytics is the read model behind the charts view.
type Analytics struct {
	Trend        []core.TrendPoint
	TenantTotals []core.TenantTotal
	Summary      core.Summary
	GeneratedAt  time.Time
}

// Dashboard is the landing-page read model.
type Dashboard struct {
	ActiveTenants  int
	TotalRecords   int
	TotalCollected float64
	Latest         *core.MaintenanceRecord
	Recent         []core.MaintenanceRecord
}

// ReportService reduces stored records into report read models.
type ReportService struct {
	tenants ports.TenantStore
	records ports.RecordStore
	cache   cache.Cache[Analytics]
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReportService takes an optional snapshot cache; nil disables caching.
func NewReportService(tenants ports.TenantStore, records ports.RecordStore, c cache.Cache[Analytics], m *metrics.Metrics) *ReportService {
	return &ReportService{tenants: tenants, records: records, cache: c, metrics: m, now: time.Now}
}

// Analytics covers the last twelve records and the active roster.
func (s *ReportService) Analytics(ctx context.Context) (Analytics, error) {
	if s.cache != nil {
		if a, ok := s.cache.Get(analyticsKey); ok {
			s.metrics.AnalyticsLookup(true)
			return a, nil
		}
		s.metrics.AnalyticsLookup(false)
	}

	var (
		records []core.MaintenanceRecord
		roster  []core.Tenant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.records.ListRecords(gctx, 0, analyticsWindow)
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = s.tenants.ListTenants(gctx, core.StatusActive)
		return err
	})
	if err := g.Wait(); err != nil {
		return Analytics{}, fmt.Errorf("load analytics: %w", err)
	}

	a := Analytics{
		Trend:        maintenance.TrendPoints(records),
		TenantTotals: maintenance.TenantWiseTotals(roster, records),
		Summary:      maintenance.Summarize(records),
		GeneratedAt:  s.now().UTC(),
	}
	if s.cache != nil {
		s.cache.Set(analyticsKey, a)
	}
	return a, nil
}

// Invalidate drops the cached analytics snapshot.
func (s *ReportService) Invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		records []core.MaintenanceRecord
		active  []core.Tenant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.records.ListRecords(gctx, 0, 0)
		return err
	})
	g.Go(func() error {
		var err error
		active, err = s.tenants.ListTenants(gctx, core.StatusActive)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}

	d := Dashboard{
		ActiveTenants:  len(active),
		TotalRecords:   len(records),
		TotalCollected: maintenance.Summarize(records).TotalCollected,
	}
	if len(records) > 0 {
		latest := records[0]
		d.Latest = &latest
	}
	d.Recent = records[:min(recentRecords, len(records))]
	return d, nil
}
