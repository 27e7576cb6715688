// Package memory is a process-local record store. It enforces the same
// tenant cap, ordering and not-found rules as the SQLite store and backs
// both the tests and DATA_BACKEND=memory.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"maintrack/internal/core"
	"maintrack/internal/maintenance"
)

type Store struct {
	mu      sync.RWMutex
	tenants map[string]core.Tenant
	records []core.MaintenanceRecord
	users   map[string]core.User
	now     func() time.Time
}

func New() *Store {
	return &Store{
		tenants: make(map[string]core.Tenant),
		users:   make(map[string]core.User),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewFromFiles seeds tenants from base/seed_tenants.txt, one
// "name[,owner]" per line. A missing file yields an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	for _, line := range readLines(filepath.Join(base, "seed_tenants.txt")) {
		name, kind, _ := strings.Cut(line, ",")
		t := core.Tenant{Name: strings.TrimSpace(name), Status: core.StatusActive, Category: core.CategoryTenant}
		if strings.TrimSpace(kind) == string(core.CategoryOwner) {
			t.Category = core.CategoryOwner
		}
		if _, err := s.CreateTenant(context.Background(), t); err != nil {
			break
		}
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) activeCount(excludeID string) int {
	n := 0
	for id, t := range s.tenants {
		if id != excludeID && t.CountsTowardCap() {
			n++
		}
	}
	return n
}

func (s *Store) CreateTenant(_ context.Context, t core.Tenant) (core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.CountsTowardCap() && s.activeCount("") >= core.MaxActiveTenants {
		return core.Tenant{}, fmt.Errorf("create tenant: %w", core.ErrTenantCapReached)
	}
	now := s.now()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tenants[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTenant(_ context.Context, t core.Tenant) (core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tenants[t.ID]
	if !ok {
		return core.Tenant{}, fmt.Errorf("update tenant %s: %w", t.ID, core.ErrNotFound)
	}
	if t.CountsTowardCap() && !current.CountsTowardCap() && s.activeCount(t.ID) >= core.MaxActiveTenants {
		return core.Tenant{}, fmt.Errorf("update tenant %s: %w", t.ID, core.ErrTenantCapReached)
	}
	t.CreatedAt = current.CreatedAt
	t.UpdatedAt = s.now()
	s.tenants[t.ID] = t
	return t, nil
}

func (s *Store) DeactivateTenant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return fmt.Errorf("deactivate tenant %s: %w", id, core.ErrNotFound)
	}
	t.Status = core.StatusInactive
	t.UpdatedAt = s.now()
	s.tenants[id] = t
	return nil
}

func (s *Store) GetTenant(_ context.Context, id string) (core.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return core.Tenant{}, fmt.Errorf("get tenant %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) ListTenants(_ context.Context, status core.TenantStatus) ([]core.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b core.Tenant) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) CreateRecord(_ context.Context, rec core.MaintenanceRecord) (core.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(rec.Payments))
	for _, p := range rec.Payments {
		if _, ok := s.tenants[p.TenantID]; !ok {
			return core.MaintenanceRecord{}, fmt.Errorf("create record: payment for tenant %s: %w", p.TenantID, core.ErrNotFound)
		}
		if _, dup := seen[p.TenantID]; dup {
			return core.MaintenanceRecord{}, fmt.Errorf("create record: duplicate payment for tenant %s", p.TenantID)
		}
		seen[p.TenantID] = struct{}{}
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now()
	rec.Payments = slices.Clone(rec.Payments)
	rec.Particulars = slices.Clone(rec.Particulars)
	for i := range rec.Payments {
		rec.Payments[i].ID, rec.Payments[i].RecordID = uuid.NewString(), rec.ID
	}
	for i := range rec.Particulars {
		rec.Particulars[i].ID, rec.Particulars[i].RecordID = uuid.NewString(), rec.ID
	}

	s.records = append(s.records, rec)
	return s.withNames(rec), nil
}

// withNames returns a copy of rec with payment tenant names filled in.
func (s *Store) withNames(rec core.MaintenanceRecord) core.MaintenanceRecord {
	rec.Payments = slices.Clone(rec.Payments)
	rec.Particulars = slices.Clone(rec.Particulars)
	for i := range rec.Payments {
		rec.Payments[i].TenantName = s.tenants[rec.Payments[i].TenantID].Name
	}
	return rec
}

func (s *Store) GetRecord(_ context.Context, id string) (core.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.ID == id {
			return s.withNames(rec), nil
		}
	}
	return core.MaintenanceRecord{}, fmt.Errorf("get record %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListRecords(_ context.Context, year, limit int) ([]core.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.MaintenanceRecord, 0, len(s.records))
	for _, rec := range s.records {
		if year == 0 || rec.Period.Year == year {
			out = append(out, s.withNames(rec))
		}
	}
	// newest insert first inside a period, then period order
	slices.Reverse(out)
	maintenance.SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUser(u)
}

func (s *Store) CreateFirstUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) > 0 {
		return core.User{}, fmt.Errorf("create first user: %w", core.ErrAlreadyBootstrapped)
	}
	return s.insertUser(u)
}

func (s *Store) insertUser(u core.User) (core.User, error) {
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, fmt.Errorf("create user: %w", core.ErrDuplicateEmail)
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.TrimSpace(email)
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (s *Store) CountUsers(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) SetTenantEmail(_ context.Context, tenantID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return fmt.Errorf("set tenant email: %w", core.ErrNotFound)
	}
	t.Email = email
	t.UpdatedAt = s.now()
	s.tenants[tenantID] = t
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
