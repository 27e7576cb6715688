package services

import (
	"context"
	"errors"
	"fmt"

	"maintrack/internal/core"
	"maintrack/internal/log"
	"maintrack/internal/maintenance"
	"maintrack/internal/metrics"
	"maintrack/internal/ports"
)

// RecordInput is the new-record form as submitted.
type RecordInput struct {
	Period        core.Period
	CollectorName string
	CreatedBy     string
	Mode          maintenance.Mode
	Payments      []core.Payment
	Statuses      map[string]core.PaymentStatus
	Particulars   []core.Particular
}

// MaintenanceService creates and reads maintenance records.
type MaintenanceService struct {
	tenants   ports.TenantStore
	records   ports.RecordStore
	publisher ports.RecordPublisher
	reports   *ReportService
	metrics   *metrics.Metrics
}

// NewMaintenanceService wires the record flow. publisher and reports may
// be nil.
func NewMaintenanceService(tenants ports.TenantStore, records ports.RecordStore, publisher ports.RecordPublisher, reports *ReportService, m *metrics.Metrics) *MaintenanceService {
	return &MaintenanceService{tenants: tenants, records: records, publisher: publisher, reports: reports, metrics: m}
}

// Preview composes the record exactly as Create would, without storing it.
func (s *MaintenanceService) Preview(ctx context.Context, in RecordInput) (core.MaintenanceRecord, error) {
	roster, err := s.tenants.ListTenants(ctx, core.StatusActive)
	if err != nil {
		return core.MaintenanceRecord{}, fmt.Errorf("load roster: %w", err)
	}

	names := make(map[string]string, len(roster))
	for _, t := range roster {
		names[t.ID] = t.Name
	}
	if in.Mode == maintenance.ModeManual {
		for _, p := range in.Payments {
			if _, ok := names[p.TenantID]; !ok && p.Amount > 0 {
				return core.MaintenanceRecord{}, fmt.Errorf("tenant %q: %w", p.TenantID, core.ErrUnknownTenant)
			}
		}
	}

	rec, err := maintenance.Compose(maintenance.Draft{
		Period:        in.Period,
		CollectorName: in.CollectorName,
		CreatedBy:     in.CreatedBy,
		Mode:          in.Mode,
		Tenants:       roster,
		Payments:      in.Payments,
		Statuses:      in.Statuses,
		Particulars:   in.Particulars,
	})
	if err != nil {
		return core.MaintenanceRecord{}, err
	}

	for i := range rec.Payments {
		if rec.Payments[i].TenantName == "" {
			rec.Payments[i].TenantName = names[rec.Payments[i].TenantID]
		}
	}
	return rec, nil
}

// Create composes, persists and announces a new record. A failed publish
// is logged; the record is already stored.
func (s *MaintenanceService) Create(ctx context.Context, in RecordInput) (core.MaintenanceRecord, error) {
	rec, err := s.Preview(ctx, in)
	if err != nil {
		return core.MaintenanceRecord{}, err
	}

	saved, err := s.records.CreateRecord(ctx, rec)
	if err != nil {
		return core.MaintenanceRecord{}, fmt.Errorf("save record: %w", err)
	}
	s.metrics.RecordCreated()
	if s.reports != nil {
		s.reports.Invalidate()
	}
	log.LogRecordCreated(ctx, saved.ID, saved.Period.Label(), saved.GrandTotal, len(saved.Payments), len(saved.Particulars))

	if err := s.publish(ctx, saved); err != nil {
		s.metrics.PublishFailed()
		log.LogError(ctx, "Failed to publish record.created", err, log.ComponentRecords, log.OpPublish, log.ErrorTypeNetwork)
	}
	return saved, nil
}

func (s *MaintenanceService) publish(ctx context.Context, rec core.MaintenanceRecord) error {
	if s.publisher == nil {
		log.FromContext(ctx).WithComponent(log.ComponentRecords).DebugContext(ctx, "No publisher configured, skipping record.created")
		return nil
	}
	return s.publisher.PublishRecordCreated(ctx, rec)
}

func (s *MaintenanceService) Get(ctx context.Context, id string) (core.MaintenanceRecord, error) {
	return s.records.GetRecord(ctx, id)
}

// List returns records newest first; year 0 lists every year.
func (s *MaintenanceService) List(ctx context.Context, year int) ([]core.MaintenanceRecord, error) {
	if year != 0 {
		if err := (core.Period{Month: 1, Year: year}).Validate(); err != nil {
			return nil, err
		}
	}
	return s.records.ListRecords(ctx, year, 0)
}

// ForTenant trims each record to the payments of one tenant, for
// tenant-role readers.
func ForTenant(records []core.MaintenanceRecord, tenantID string) []core.MaintenanceRecord {
	out := make([]core.MaintenanceRecord, len(records))
	for i, r := range records {
		kept := make([]core.Payment, 0, 1)
		for _, p := range r.Payments {
			if p.TenantID == tenantID {
				kept = append(kept, p)
			}
		}
		r.Payments = kept
		out[i] = r
	}
	return out
}

// IsValidation reports whether err is a user-correctable input error.
func IsValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidMonth, core.ErrInvalidYear, core.ErrInvalidAmount, core.ErrEmptyName,
		core.ErrEmptyCollector, core.ErrInvalidStatus, core.ErrInvalidCategory, core.ErrInvalidRole,
		core.ErrInvalidEmail, core.ErrPasswordTooShort, core.ErrPasswordMismatch, core.ErrNoTenants,
		core.ErrDuplicatePayment, core.ErrNameTooLong, core.ErrUnknownTenant, maintenance.ErrUnknownMode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
