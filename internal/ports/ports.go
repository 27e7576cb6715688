// Package ports declares the collaborators the services depend on. The
// SQLite store, the in-memory store and the object store adapters
// implement them.
package ports

import (
	"context"
	"io"

	"maintrack/internal/core"
)

// Ports for outbound adapters.
type (
	TenantStore interface {
		// CreateTenant fails with core.ErrTenantCapReached when the new row
		// would exceed core.MaxActiveTenants. The check and the insert are
		// atomic.
		CreateTenant(ctx context.Context, t core.Tenant) (core.Tenant, error)
		// UpdateTenant applies the same cap check when the update turns a
		// row into an active tenant.
		UpdateTenant(ctx context.Context, t core.Tenant) (core.Tenant, error)
		// DeactivateTenant flips status to inactive; the row is kept.
		DeactivateTenant(ctx context.Context, id string) error
		GetTenant(ctx context.Context, id string) (core.Tenant, error)
		// ListTenants returns tenants ordered by name. An empty status
		// returns every row.
		ListTenants(ctx context.Context, status core.TenantStatus) ([]core.Tenant, error)
	}

	RecordStore interface {
		// CreateRecord inserts the record with its payments and particulars
		// in one transaction.
		CreateRecord(ctx context.Context, r core.MaintenanceRecord) (core.MaintenanceRecord, error)
		// GetRecord returns the record with children attached and payment
		// tenant names filled.
		GetRecord(ctx context.Context, id string) (core.MaintenanceRecord, error)
		// ListRecords returns records ordered by year desc, month desc, with
		// children attached. year 0 means any year; limit 0 means no limit.
		ListRecords(ctx context.Context, year, limit int) ([]core.MaintenanceRecord, error)
	}

	UserStore interface {
		// CreateUser fails with core.ErrDuplicateEmail on a taken email.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		// CreateFirstUser stores u only while no user exists; otherwise it
		// fails with core.ErrAlreadyBootstrapped.
		CreateFirstUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		CountUsers(ctx context.Context) (int, error)
		// SetTenantEmail records the login email on the tenant row.
		SetTenantEmail(ctx context.Context, tenantID, email string) error
	}

	// Store is everything a backend provides.
	Store interface {
		TenantStore
		RecordStore
		UserStore
		Ping(ctx context.Context) error
		Close() error
	}

	ObjectStore interface {
		// Put stores the object and returns a publicly dereferenceable URL.
		Put(ctx context.Context, name, contentType string, body io.Reader) (url string, err error)
	}

	RecordPublisher interface {
		PublishRecordCreated(ctx context.Context, r core.MaintenanceRecord) error
	}
)
