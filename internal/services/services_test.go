package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintrack/internal/auth"
	"maintrack/internal/cache"
	"maintrack/internal/core"
	"maintrack/internal/maintenance"
	"maintrack/internal/memory"
	"maintrack/internal/metrics"
)

type fakePublisher struct {
	mu   sync.Mutex
	got  []core.MaintenanceRecord
	fail error
}

func (f *fakePublisher) PublishRecordCreated(_ context.Context, r core.MaintenanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, r)
	return f.fail
}

type fixture struct {
	store       *memory.Store
	tenants     *TenantService
	records     *MaintenanceService
	reports     *ReportService
	publisher   *fakePublisher
	analyticsLR *cache.LRUCache[Analytics]
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	m := metrics.New()
	pub := &fakePublisher{}
	lru := cache.NewLRUCache[Analytics](4, time.Minute)
	reports := NewReportService(store, store, lru, m)
	return fixture{
		store:       store,
		tenants:     NewTenantService(store, reports, m),
		records:     NewMaintenanceService(store, store, pub, reports, m),
		reports:     reports,
		publisher:   pub,
		analyticsLR: lru,
	}
}

func (f fixture) addTenant(t *testing.T, name string, cat core.TenantCategory) core.Tenant {
	t.Helper()
	tn, err := f.tenants.Create(context.Background(), core.Tenant{Name: name, Category: cat})
	require.NoError(t, err)
	return tn
}

func TestTenantServiceDefaultsAndCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.addTenant(t, "  Flat 1 ", "")
	assert.Equal(t, "Flat 1", first.Name)
	assert.Equal(t, core.StatusActive, first.Status)
	assert.Equal(t, core.CategoryTenant, first.Category)

	for i := 0; i < core.MaxActiveTenants-1; i++ {
		f.addTenant(t, "Flat", core.CategoryTenant)
	}
	_, err := f.tenants.Create(ctx, core.Tenant{Name: "One too many"})
	assert.ErrorIs(t, err, core.ErrTenantCapReached)

	f.addTenant(t, "Landlord", core.CategoryOwner)

	_, err = f.tenants.Create(ctx, core.Tenant{Name: " "})
	assert.ErrorIs(t, err, core.ErrEmptyName)

	require.NoError(t, f.tenants.Deactivate(ctx, first.ID))
	got, err := f.tenants.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusInactive, got.Status)

	got.Status = core.StatusActive
	got.Phone = "123"
	_, err = f.tenants.Create(ctx, core.Tenant{Name: "Replacement"})
	require.NoError(t, err)
	_, err = f.tenants.Update(ctx, got)
	assert.ErrorIs(t, err, core.ErrTenantCapReached)

	_, err = f.tenants.List(ctx, "bogus")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
	all, err := f.tenants.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestCreateAutoSplitRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addTenant(t, "Alice", core.CategoryTenant)
	b := f.addTenant(t, "Bob", core.CategoryTenant)
	f.addTenant(t, "Owner", core.CategoryOwner)

	rec, err := f.records.Create(ctx, RecordInput{
		Period:        core.Period{Month: 3, Year: 2024},
		CollectorName: "Vanaja",
		Mode:          maintenance.ModeAutoSplit,
		Statuses:      map[string]core.PaymentStatus{a.ID: core.PaymentPaid},
		Particulars: []core.Particular{
			{Name: "Cleaning", Price: 600},
			{Name: "", Price: 50},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 600.0, rec.GrandTotal)
	require.Len(t, rec.Payments, 2)
	require.Len(t, rec.Particulars, 1)

	byTenant := map[string]core.Payment{}
	for _, p := range rec.Payments {
		byTenant[p.TenantID] = p
	}
	assert.Equal(t, 300.0, byTenant[a.ID].Amount)
	assert.Equal(t, core.PaymentPaid, byTenant[a.ID].Status)
	assert.Equal(t, core.PaymentPending, byTenant[b.ID].Status)
	assert.Equal(t, "Bob", byTenant[b.ID].TenantName)

	require.Len(t, f.publisher.got, 1)
	assert.Equal(t, rec.ID, f.publisher.got[0].ID)
}

func TestCreateManualAndPublishFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addTenant(t, "Alice", core.CategoryTenant)
	f.publisher.fail = errors.New("broker down")

	rec, err := f.records.Create(ctx, RecordInput{
		Period:        core.Period{Month: 4, Year: 2024},
		CollectorName: "Vanaja",
		Mode:          maintenance.ModeManual,
		Payments:      []core.Payment{{TenantID: a.ID, Amount: 1500, Status: core.PaymentPartial}},
		Particulars:   []core.Particular{{Name: "Bulbs", Price: 200, Category: core.ParticularProduct}},
	})
	require.NoError(t, err, "publish failure must not fail the request")
	assert.Equal(t, 1700.0, rec.GrandTotal)

	stored, err := f.records.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.Payments[0].TenantName)

	_, err = f.records.Create(ctx, RecordInput{
		Period:        core.Period{Month: 4, Year: 2024},
		CollectorName: "Vanaja",
		Mode:          maintenance.ModeManual,
		Payments:      []core.Payment{{TenantID: "ghost", Amount: 10}},
	})
	assert.ErrorIs(t, err, core.ErrUnknownTenant)
	assert.True(t, IsValidation(err))
}

func TestCreateAutoSplitWithoutTenants(t *testing.T) {
	f := newFixture(t)
	f.addTenant(t, "Owner", core.CategoryOwner)

	_, err := f.records.Create(context.Background(), RecordInput{
		Period:        core.Period{Month: 4, Year: 2024},
		CollectorName: "Vanaja",
		Mode:          maintenance.ModeAutoSplit,
		Particulars:   []core.Particular{{Name: "Cleaning", Price: 100}},
	})
	assert.ErrorIs(t, err, core.ErrNoTenants)
	assert.True(t, IsValidation(err))
	assert.Empty(t, f.publisher.got)
}

func TestAnalyticsCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addTenant(t, "Alice", core.CategoryTenant)
	f.addTenant(t, "Zed", core.CategoryTenant)

	create := func(month int, amount float64) {
		_, err := f.records.Create(ctx, RecordInput{
			Period:        core.Period{Month: month, Year: 2024},
			CollectorName: "c",
			Mode:          maintenance.ModeManual,
			Payments:      []core.Payment{{TenantID: a.ID, Amount: amount}},
		})
		require.NoError(t, err)
	}
	create(1, 100)
	create(2, 300)

	got, err := f.reports.Analytics(ctx)
	require.NoError(t, err)
	require.Len(t, got.Trend, 2)
	assert.Equal(t, core.TrendPoint{Label: "Jan 2024", Total: 100}, got.Trend[0])
	require.Len(t, got.TenantTotals, 2)
	assert.Equal(t, 400.0, got.TenantTotals[0].Total)
	assert.Zero(t, got.TenantTotals[1].Total)
	require.NotNil(t, got.Summary.Trend)
	assert.Equal(t, core.TrendUp, got.Summary.Trend.Direction)
	assert.InDelta(t, 200.0, got.Summary.Trend.Percent, 1e-9)

	_, err = f.reports.Analytics(ctx)
	require.NoError(t, err)
	hits, _ := f.analyticsLR.Stats()
	assert.Equal(t, uint64(1), hits)

	create(3, 50)
	got, err = f.reports.Analytics(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Trend, 3, "creating a record must invalidate the snapshot")
	assert.Equal(t, core.TrendDown, got.Summary.Trend.Direction)
}

func TestRosterChangesInvalidateAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addTenant(t, "Alice", core.CategoryTenant)
	_, err := f.records.Create(ctx, RecordInput{
		Period:        core.Period{Month: 1, Year: 2024},
		CollectorName: "c",
		Mode:          maintenance.ModeManual,
		Payments:      []core.Payment{{TenantID: alice.ID, Amount: 100}},
	})
	require.NoError(t, err)

	names := func() []string {
		t.Helper()
		got, err := f.reports.Analytics(ctx)
		require.NoError(t, err)
		var out []string
		for _, tt := range got.TenantTotals {
			out = append(out, tt.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Alice"}, names())

	bob := f.addTenant(t, "Bob", core.CategoryTenant)
	assert.Equal(t, []string{"Alice", "Bob"}, names(), "create")

	bob.Name = "Robert"
	_, err = f.tenants.Update(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Robert"}, names(), "rename")

	require.NoError(t, f.tenants.Deactivate(ctx, alice.ID))
	assert.Equal(t, []string{"Robert"}, names(), "deactivate")

	// a rejected mutation keeps the snapshot
	_, err = f.tenants.Create(ctx, core.Tenant{Name: " "})
	require.Error(t, err)
	names()
	hits, _ := f.analyticsLR.Stats()
	assert.Equal(t, uint64(1), hits)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty.Latest)
	assert.Empty(t, empty.Recent)

	a := f.addTenant(t, "Alice", core.CategoryTenant)
	f.addTenant(t, "Owner", core.CategoryOwner)
	for m := 1; m <= 7; m++ {
		_, err := f.records.Create(ctx, RecordInput{
			Period:        core.Period{Month: m, Year: 2024},
			CollectorName: "c",
			Mode:          maintenance.ModeManual,
			Payments:      []core.Payment{{TenantID: a.ID, Amount: 10}},
		})
		require.NoError(t, err)
	}

	d, err := f.reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, d.ActiveTenants)
	assert.Equal(t, 7, d.TotalRecords)
	assert.Equal(t, 70.0, d.TotalCollected)
	require.NotNil(t, d.Latest)
	assert.Equal(t, "Jul 2024", d.Latest.Period.Label())
	assert.Len(t, d.Recent, 5)
}

func TestListAndForTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTenant(t, "Alice", core.CategoryTenant)
	b := f.addTenant(t, "Bob", core.CategoryTenant)

	_, err := f.records.Create(ctx, RecordInput{
		Period:        core.Period{Month: 1, Year: 2023},
		CollectorName: "c",
		Mode:          maintenance.ModeAutoSplit,
		Particulars:   []core.Particular{{Name: "Paint", Price: 100}},
	})
	require.NoError(t, err)
	_, err = f.records.Create(ctx, RecordInput{
		Period:        core.Period{Month: 1, Year: 2024},
		CollectorName: "c",
		Mode:          maintenance.ModeAutoSplit,
		Particulars:   []core.Particular{{Name: "Paint", Price: 100}},
	})
	require.NoError(t, err)

	all, err := f.records.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	only, err := f.records.List(ctx, 2023)
	require.NoError(t, err)
	assert.Len(t, only, 1)
	_, err = f.records.List(ctx, 1800)
	assert.ErrorIs(t, err, core.ErrInvalidYear)

	mine := ForTenant(all, b.ID)
	require.Len(t, mine[0].Payments, 1)
	assert.Equal(t, b.ID, mine[0].Payments[0].TenantID)
	assert.Len(t, all[0].Payments, 2, "input must not be modified")
}

func TestAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issuer, err := auth.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	accounts := NewAccountService(f.store, f.store, issuer)

	boot, err := accounts.NeedsBootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, boot)

	tn := f.addTenant(t, "Alice", core.CategoryTenant)

	_, err = accounts.CreateAccount(ctx, SignUp{Email: "a@x.io", Password: "12345", Confirm: "12345", Role: core.RoleTenant, TenantID: tn.ID})
	assert.ErrorIs(t, err, core.ErrPasswordTooShort)
	_, err = accounts.CreateAccount(ctx, SignUp{Email: "a@x.io", Password: "123456", Confirm: "654321", Role: core.RoleTenant, TenantID: tn.ID})
	assert.ErrorIs(t, err, core.ErrPasswordMismatch)
	_, err = accounts.CreateAccount(ctx, SignUp{Email: "a@x.io", Password: "123456", Confirm: "123456", Role: "root"})
	assert.ErrorIs(t, err, core.ErrInvalidRole)
	_, err = accounts.CreateAccount(ctx, SignUp{Email: "a@x.io", Password: "123456", Confirm: "123456", Role: core.RoleTenant, TenantID: "ghost"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	u, err := accounts.CreateAccount(ctx, SignUp{Email: " Alice@X.io ", Password: "123456", Confirm: "123456", Role: core.RoleTenant, TenantID: tn.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", u.Email)
	assert.NotEqual(t, "123456", u.PasswordHash)

	withEmail, err := f.tenants.Get(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", withEmail.Email)

	_, err = accounts.CreateAccount(ctx, SignUp{Email: "alice@x.io", Password: "123456", Confirm: "123456", Role: core.RoleAdmin})
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)

	_, err = accounts.Login(ctx, "alice@x.io", "wrong1")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, err = accounts.Login(ctx, "nobody@x.io", "123456")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	sess, err := accounts.Login(ctx, "ALICE@x.io", "123456")
	require.NoError(t, err)
	claims, err := issuer.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID())
	assert.Equal(t, tn.ID, claims.TenantID)
}

func TestBootstrapCreatesOneAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accounts := NewAccountService(f.store, f.store, nil)

	_, err := accounts.Bootstrap(ctx, SignUp{Email: "m@x.io", Password: "123456", Confirm: "123456", Role: core.RoleManager})
	assert.ErrorIs(t, err, core.ErrInvalidRole)

	const racers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		refused int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := accounts.Bootstrap(ctx, SignUp{
				Email: fmt.Sprintf("admin%d@x.io", i), Password: "123456", Confirm: "123456", Role: core.RoleAdmin,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, core.ErrAlreadyBootstrapped):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, racers-1, refused)
	n, err := f.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
