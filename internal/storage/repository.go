package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"maintrack/internal/core"
	"maintrack/internal/log"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// SQLiteRepository is the record store backed by a single SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time: the tenant cap check and its insert must not
	// interleave with another transaction.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn in a transaction, rolling back on any error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTenant(ctx context.Context, t core.Tenant) (core.Tenant, error) {
	now := r.now()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now

	err := r.withTx(ctx, func(q *Queries) error {
		if t.CountsTowardCap() {
			if err := checkCap(ctx, q, ""); err != nil {
				return err
			}
		}
		return q.CreateTenant(ctx, toTenantRow(t))
	})
	if err != nil {
		return core.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}

	slog.InfoContext(ctx, "Tenant saved to SQLite", "id", t.ID, "category", t.Category, "status", t.Status)
	return t, nil
}

func (r *SQLiteRepository) UpdateTenant(ctx context.Context, t core.Tenant) (core.Tenant, error) {
	err := r.withTx(ctx, func(q *Queries) error {
		current, err := q.GetTenant(ctx, t.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return err
		}
		wasCounted := fromTenantRow(current).CountsTowardCap()
		if t.CountsTowardCap() && !wasCounted {
			if err := checkCap(ctx, q, t.ID); err != nil {
				return err
			}
		}

		createdAt, _ := time.Parse(timeLayout, current.CreatedAt)
		t.CreatedAt = createdAt
		t.UpdatedAt = r.now()
		_, err = q.UpdateTenant(ctx, toTenantRow(t))
		return err
	})
	if err != nil {
		return core.Tenant{}, fmt.Errorf("update tenant %s: %w", t.ID, err)
	}
	return t, nil
}

func checkCap(ctx context.Context, q *Queries, excludeID string) error {
	n, err := q.CountActiveTenants(ctx, excludeID)
	if err != nil {
		return fmt.Errorf("count active tenants: %w", err)
	}
	if n >= core.MaxActiveTenants {
		return core.ErrTenantCapReached
	}
	return nil
}

func (r *SQLiteRepository) DeactivateTenant(ctx context.Context, id string) error {
	n, err := r.queries.SetTenantStatus(ctx, id, string(core.StatusInactive), r.now().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("deactivate tenant %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("deactivate tenant %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Tenant deactivated", "id", id)
	return nil
}

func (r *SQLiteRepository) GetTenant(ctx context.Context, id string) (core.Tenant, error) {
	row, err := r.queries.GetTenant(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tenant{}, fmt.Errorf("get tenant %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Tenant{}, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return fromTenantRow(row), nil
}

func (r *SQLiteRepository) ListTenants(ctx context.Context, status core.TenantStatus) ([]core.Tenant, error) {
	rows, err := r.queries.ListTenants(ctx, string(status))
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	out := make([]core.Tenant, len(rows))
	for i, row := range rows {
		out[i] = fromTenantRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateRecord(ctx context.Context, rec core.MaintenanceRecord) (core.MaintenanceRecord, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = r.now()

	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.CreateRecord(ctx, RecordRow{
			ID:            rec.ID,
			Month:         int64(rec.Period.Month),
			Year:          int64(rec.Period.Year),
			CollectorName: rec.CollectorName,
			GrandTotal:    rec.GrandTotal,
			CreatedBy:     rec.CreatedBy,
			CreatedAt:     rec.CreatedAt.Format(timeLayout),
		}); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}

		for i := range rec.Payments {
			p := &rec.Payments[i]
			p.ID, p.RecordID = uuid.NewString(), rec.ID
			if err := q.CreatePayment(ctx, PaymentRow{
				ID:       p.ID,
				RecordID: rec.ID,
				TenantID: p.TenantID,
				Amount:   p.Amount,
				Status:   string(p.Status),
				Position: int64(i),
			}); err != nil {
				return fmt.Errorf("insert payment for tenant %s: %w", p.TenantID, err)
			}
		}

		for i := range rec.Particulars {
			p := &rec.Particulars[i]
			p.ID, p.RecordID = uuid.NewString(), rec.ID
			if err := q.CreateParticular(ctx, ParticularRow{
				ID:          p.ID,
				RecordID:    rec.ID,
				ItemName:    p.Name,
				Price:       p.Price,
				Type:        string(p.Category),
				Description: p.Description,
				ReceiptURL:  p.ReceiptURL,
				Position:    int64(i),
			}); err != nil {
				return fmt.Errorf("insert particular %q: %w", p.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.MaintenanceRecord{}, fmt.Errorf("create record: %w", err)
	}

	slog.InfoContext(ctx, "Maintenance record saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		"id", rec.ID,
		"period", rec.Period.Label(),
		"grand_total", rec.GrandTotal,
		"payments", len(rec.Payments),
		"particulars", len(rec.Particulars))

	return rec, nil
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, id string) (core.MaintenanceRecord, error) {
	row, err := r.queries.GetRecord(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MaintenanceRecord{}, fmt.Errorf("get record %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.MaintenanceRecord{}, fmt.Errorf("get record %s: %w", id, err)
	}

	records, err := r.attachChildren(ctx, []RecordRow{row})
	if err != nil {
		return core.MaintenanceRecord{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return records[0], nil
}

func (r *SQLiteRepository) ListRecords(ctx context.Context, year, limit int) ([]core.MaintenanceRecord, error) {
	rows, err := r.queries.ListRecords(ctx, int64(year), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	records, err := r.attachChildren(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (r *SQLiteRepository) attachChildren(ctx context.Context, rows []RecordRow) ([]core.MaintenanceRecord, error) {
	records := make([]core.MaintenanceRecord, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		records[i] = fromRecordRow(row)
		index[row.ID] = i
		ids[i] = row.ID
	}

	payments, err := r.queries.ListPaymentsForRecords(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	for _, p := range payments {
		rec := &records[index[p.RecordID]]
		rec.Payments = append(rec.Payments, core.Payment{
			ID:         p.ID,
			RecordID:   p.RecordID,
			TenantID:   p.TenantID,
			TenantName: p.TenantName.String,
			Amount:     p.Amount,
			Status:     core.PaymentStatus(p.Status),
		})
	}

	particulars, err := r.queries.ListParticularsForRecords(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load particulars: %w", err)
	}
	for _, p := range particulars {
		rec := &records[index[p.RecordID]]
		rec.Particulars = append(rec.Particulars, core.Particular{
			ID:          p.ID,
			RecordID:    p.RecordID,
			Name:        p.ItemName,
			Price:       p.Price,
			Category:    core.ParticularCategory(p.Type),
			Description: p.Description,
			ReceiptURL:  p.ReceiptURL,
		})
	}
	return records, nil
}

func (r *SQLiteRepository) newUserRow(u *core.User) UserRow {
	u.ID = uuid.NewString()
	u.CreatedAt = r.now()
	return UserRow{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		TenantID:     sql.NullString{String: u.TenantID, Valid: u.TenantID != ""},
		CreatedAt:    u.CreatedAt.Format(timeLayout),
	}
}

// CreateFirstUser relies on the single-statement insert being atomic under
// SQLite's write lock.
func (r *SQLiteRepository) CreateFirstUser(ctx context.Context, u core.User) (core.User, error) {
	inserted, err := r.queries.CreateFirstUser(ctx, r.newUserRow(&u))
	if err != nil {
		return core.User{}, fmt.Errorf("create first user: %w", err)
	}
	if !inserted {
		return core.User{}, fmt.Errorf("create first user: %w", core.ErrAlreadyBootstrapped)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row := r.newUserRow(&u)
	if err := r.queries.CreateUser(ctx, row); err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("create user: %w", core.ErrDuplicateEmail)
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return fromUserRow(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return fromUserRow(row), nil
}

func (r *SQLiteRepository) CountUsers(ctx context.Context) (int, error) {
	n, err := r.queries.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) SetTenantEmail(ctx context.Context, tenantID, email string) error {
	n, err := r.queries.SetTenantEmail(ctx, tenantID, email, r.now().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("set tenant email: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set tenant email: %w", core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toTenantRow(t core.Tenant) TenantRow {
	return TenantRow{
		ID:        t.ID,
		Name:      t.Name,
		Phone:     t.Phone,
		Email:     t.Email,
		Status:    string(t.Status),
		Category:  string(t.Category),
		CreatedAt: t.CreatedAt.Format(timeLayout),
		UpdatedAt: t.UpdatedAt.Format(timeLayout),
	}
}

func fromTenantRow(row TenantRow) core.Tenant {
	created, _ := time.Parse(timeLayout, row.CreatedAt)
	updated, _ := time.Parse(timeLayout, row.UpdatedAt)
	return core.Tenant{
		ID:        row.ID,
		Name:      row.Name,
		Phone:     row.Phone,
		Email:     row.Email,
		Status:    core.TenantStatus(row.Status),
		Category:  core.TenantCategory(row.Category),
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

func fromRecordRow(row RecordRow) core.MaintenanceRecord {
	created, _ := time.Parse(timeLayout, row.CreatedAt)
	return core.MaintenanceRecord{
		ID:            row.ID,
		Period:        core.Period{Month: int(row.Month), Year: int(row.Year)},
		CollectorName: row.CollectorName,
		GrandTotal:    row.GrandTotal,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     created,
	}
}

func fromUserRow(row UserRow) core.User {
	created, _ := time.Parse(timeLayout, row.CreatedAt)
	return core.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         core.Role(row.Role),
		TenantID:     row.TenantID.String,
		CreatedAt:    created,
	}
}
