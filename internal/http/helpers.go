package http

import (
	"strings"

	"maintrack/internal/core"
	"maintrack/internal/services"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// scopeRecords narrows records to the caller's own payments when the
// caller is a tenant.
func scopeRecords(p principal, recs []core.MaintenanceRecord) []core.MaintenanceRecord {
	if !p.scopedToTenant() {
		return recs
	}
	return services.ForTenant(recs, p.TenantID)
}

func scopeRecord(p principal, rec core.MaintenanceRecord) core.MaintenanceRecord {
	return scopeRecords(p, []core.MaintenanceRecord{rec})[0]
}

// scopeTenant hides other tenants' contact details from tenant callers.
func scopeTenant(p principal, t core.Tenant) core.Tenant {
	if p.scopedToTenant() && t.ID != p.TenantID {
		t.Phone, t.Email = "", ""
	}
	return t
}
