package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maintrack/internal/core"
	"maintrack/internal/log"
	"maintrack/internal/metrics"
	"maintrack/internal/ports"
)

// TenantService manages the tenant roster.
type TenantService struct {
	store   ports.TenantStore
	reports *ReportService
	metrics *metrics.Metrics
}

// NewTenantService takes the report service whose snapshot depends on the
// roster; reports may be nil.
func NewTenantService(store ports.TenantStore, reports *ReportService, m *metrics.Metrics) *TenantService {
	return &TenantService{store: store, reports: reports, metrics: m}
}

func (s *TenantService) rosterChanged() {
	if s.reports != nil {
		s.reports.Invalidate()
	}
}

func normalizeTenant(t core.Tenant) core.Tenant {
	t.Name = strings.TrimSpace(t.Name)
	t.Phone = strings.TrimSpace(t.Phone)
	t.Email = strings.TrimSpace(t.Email)
	if t.Status == "" {
		t.Status = core.StatusActive
	}
	if t.Category == "" {
		t.Category = core.CategoryTenant
	}
	return t
}

// Create adds a tenant. Status defaults to active and category to tenant.
func (s *TenantService) Create(ctx context.Context, t core.Tenant) (core.Tenant, error) {
	t = normalizeTenant(t)
	if err := t.Validate(); err != nil {
		return core.Tenant{}, err
	}
	created, err := s.store.CreateTenant(ctx, t)
	if err != nil {
		s.observeCap(err)
		return core.Tenant{}, err
	}
	s.rosterChanged()
	log.FromContext(ctx).WithComponent(log.ComponentTenants).InfoContext(ctx, "Tenant created",
		log.FieldTenantID, created.ID, log.FieldOperation, log.OpCreate)
	return created, nil
}

// Update replaces the editable fields of an existing tenant.
func (s *TenantService) Update(ctx context.Context, t core.Tenant) (core.Tenant, error) {
	current, err := s.store.GetTenant(ctx, t.ID)
	if err != nil {
		return core.Tenant{}, err
	}
	if t.Category == "" {
		t.Category = current.Category
	}
	if t.Status == "" {
		t.Status = current.Status
	}
	t = normalizeTenant(t)
	if err := t.Validate(); err != nil {
		return core.Tenant{}, err
	}
	updated, err := s.store.UpdateTenant(ctx, t)
	if err != nil {
		s.observeCap(err)
		return core.Tenant{}, err
	}
	s.rosterChanged()
	return updated, nil
}

// Deactivate is a soft delete: the tenant and its payment history remain.
func (s *TenantService) Deactivate(ctx context.Context, id string) error {
	if err := s.store.DeactivateTenant(ctx, id); err != nil {
		return err
	}
	s.rosterChanged()
	log.FromContext(ctx).WithComponent(log.ComponentTenants).InfoContext(ctx, "Tenant deactivated",
		log.FieldTenantID, id, log.FieldOperation, log.OpDeactivate)
	return nil
}

func (s *TenantService) Get(ctx context.Context, id string) (core.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List returns tenants by name; an empty status returns all of them.
func (s *TenantService) List(ctx context.Context, status core.TenantStatus) ([]core.Tenant, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("list tenants: %w", core.ErrInvalidStatus)
	}
	return s.store.ListTenants(ctx, status)
}

func (s *TenantService) observeCap(err error) {
	if errors.Is(err, core.ErrTenantCapReached) {
		s.metrics.CapRejected()
	}
}
