package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintrack/internal/core"
)

func TestComposeAutoSplit(t *testing.T) {
	d := Draft{
		Period:        core.Period{Month: 4, Year: 2024},
		CollectorName: " Vanaja ",
		CreatedBy:     "user-1",
		Mode:          ModeAutoSplit,
		Tenants: []core.Tenant{
			tenant("a", core.CategoryTenant, core.StatusActive),
			tenant("b", core.CategoryTenant, core.StatusActive),
			tenant("o", core.CategoryOwner, core.StatusActive),
		},
		// manual rows are ignored in auto mode
		Payments:    []core.Payment{{TenantID: "a", Amount: 9999}},
		Statuses:    map[string]core.PaymentStatus{"b": core.PaymentPaid},
		Particulars: []core.Particular{particular("Cleaning", 300), particular("", 100), {Name: "Bulbs", Price: 100}},
	}

	rec, err := Compose(d)
	require.NoError(t, err)

	assert.Equal(t, "Vanaja", rec.CollectorName)
	assert.Equal(t, 400.0, rec.GrandTotal)
	require.Len(t, rec.Particulars, 2)
	assert.Equal(t, core.ParticularService, rec.Particulars[1].Category)
	require.Len(t, rec.Payments, 2)
	assert.Equal(t, 200.0, rec.Payments[0].Amount)
	assert.Equal(t, core.PaymentPending, rec.Payments[0].Status)
	assert.Equal(t, core.PaymentPaid, rec.Payments[1].Status)

	assert.Empty(t, d.Particulars[2].Category, "draft must not be modified")
}

func TestComposeManual(t *testing.T) {
	d := Draft{
		Period:        core.Period{Month: 4, Year: 2024},
		CollectorName: "Vanaja",
		Mode:          ModeManual,
		Payments: []core.Payment{
			{TenantID: "a", Amount: 1500, Status: core.PaymentPaid},
			{TenantID: "b", Amount: 0},
			{TenantID: "c", Amount: 700},
		},
		Particulars: []core.Particular{particular("Cleaning", 300)},
	}

	rec, err := Compose(d)
	require.NoError(t, err)
	require.Len(t, rec.Payments, 2)
	assert.Equal(t, core.PaymentPending, rec.Payments[1].Status)
	assert.Equal(t, 2500.0, rec.GrandTotal)
	assert.Equal(t, ManualTotal(rec.Payments, rec.Particulars), rec.GrandTotal)
}

func TestComposeErrors(t *testing.T) {
	base := Draft{Period: core.Period{Month: 4, Year: 2024}, CollectorName: "x", Mode: ModeManual}

	noTenants := base
	noTenants.Mode = ModeAutoSplit
	_, err := Compose(noTenants)
	assert.ErrorIs(t, err, core.ErrNoTenants)

	noCollector := base
	noCollector.CollectorName = "  "
	_, err = Compose(noCollector)
	assert.ErrorIs(t, err, core.ErrEmptyCollector)

	badPeriod := base
	badPeriod.Period.Month = 13
	_, err = Compose(badPeriod)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	dup := base
	dup.Payments = []core.Payment{{TenantID: "a", Amount: 1}, {TenantID: "a", Amount: 2}}
	_, err = Compose(dup)
	assert.ErrorIs(t, err, core.ErrDuplicatePayment)

	badMode := base
	badMode.Mode = "weird"
	_, err = Compose(badMode)
	assert.ErrorIs(t, err, ErrUnknownMode)
}
