package http

import (
	"net/http"

	"maintrack/internal/core"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	a, err := s.svc.Reports.Analytics(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p.scopedToTenant() {
		// the snapshot is shared; filter a copy
		own := make([]core.TenantTotal, 0, 1)
		for _, t := range a.TenantTotals {
			if t.TenantID == p.TenantID {
				own = append(own, t)
			}
		}
		a.TenantTotals = own
	}
	writeJSON(w, http.StatusOK, toAnalyticsResponse(a))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	d, err := s.svc.Reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := dashboardResponse{
		ActiveTenants:  d.ActiveTenants,
		TotalRecords:   d.TotalRecords,
		TotalCollected: d.TotalCollected,
		Recent:         toRecordResponses(scopeRecords(p, d.Recent)),
	}
	if d.Latest != nil {
		latest := toRecordResponse(scopeRecord(p, *d.Latest))
		out.Latest = &latest
	}
	writeJSON(w, http.StatusOK, out)
}
