package maintenance

import (
	"errors"
	"fmt"
	"strings"

	"maintrack/internal/core"
)

const (
	ModeAutoSplit Mode = "auto"
	ModeManual    Mode = "manual"
)

// ErrUnknownMode is returned by Compose for a mode other than the two above.
var ErrUnknownMode = errors.New("unknown accounting mode")

// Mode selects how a record's grand total is derived.
type Mode string

func (m Mode) Valid() bool {
	return m == ModeAutoSplit || m == ModeManual
}

// Draft is an immutable snapshot of the new-record form.
type Draft struct {
	Period        core.Period
	CollectorName string
	CreatedBy     string
	Mode          Mode

	// Tenants is the roster used by ModeAutoSplit.
	Tenants []core.Tenant
	// Payments are the rows typed in ModeManual.
	Payments []core.Payment
	// Statuses overrides the pending default of auto-split payments.
	Statuses    map[string]core.PaymentStatus
	Particulars []core.Particular
}

// Compose builds the record that will be persisted from a draft. Incomplete
// rows are dropped before totals are computed, so the cached grand total
// always matches the formula over the rows that are actually stored.
func Compose(d Draft) (core.MaintenanceRecord, error) {
	if !d.Mode.Valid() {
		return core.MaintenanceRecord{}, fmt.Errorf("%w %q", ErrUnknownMode, d.Mode)
	}

	_, particulars := FilterForPersistence(nil, d.Particulars)
	for i := range particulars {
		if particulars[i].Category == "" {
			particulars[i].Category = core.ParticularService
		}
	}

	rec := core.MaintenanceRecord{
		Period:        d.Period,
		CollectorName: strings.TrimSpace(d.CollectorName),
		CreatedBy:     d.CreatedBy,
		Particulars:   particulars,
	}

	switch d.Mode {
	case ModeAutoSplit:
		split, err := AutoSplit(d.Tenants, particulars)
		if err != nil {
			return core.MaintenanceRecord{}, err
		}
		for i := range split.Payments {
			if st, ok := d.Statuses[split.Payments[i].TenantID]; ok {
				split.Payments[i].Status = st
			}
		}
		rec.Payments, _ = FilterForPersistence(split.Payments, nil)
		rec.GrandTotal = split.GrandTotal
	case ModeManual:
		payments, _ := FilterForPersistence(d.Payments, nil)
		seen := make(map[string]struct{}, len(payments))
		for i := range payments {
			if _, dup := seen[payments[i].TenantID]; dup {
				return core.MaintenanceRecord{}, fmt.Errorf("tenant %s: %w", payments[i].TenantID, core.ErrDuplicatePayment)
			}
			seen[payments[i].TenantID] = struct{}{}
			if payments[i].Status == "" {
				payments[i].Status = core.PaymentPending
			}
		}
		rec.Payments = payments
		rec.GrandTotal = ManualTotal(payments, particulars)
	}

	if err := rec.Validate(); err != nil {
		return core.MaintenanceRecord{}, err
	}
	return rec, nil
}
