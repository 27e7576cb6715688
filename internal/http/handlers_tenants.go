package http

import (
	"net/http"

	"maintrack/internal/core"
	"maintrack/internal/log"
)

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	tenants, err := s.svc.Tenants.List(r.Context(), core.TenantStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]tenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(scopeTenant(p, t)))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	t, err := s.svc.Tenants.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantResponse(scopeTenant(p, t)))
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Tenants.Create(r.Context(), req.toTenant())
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentTenants).InfoContext(r.Context(), "Tenant created",
		log.FieldTenantID, t.ID, log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, toTenantResponse(t))
}

func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t := req.toTenant()
	t.ID = r.PathValue("id")
	t, err := s.svc.Tenants.Update(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentTenants).InfoContext(r.Context(), "Tenant updated",
		log.FieldTenantID, t.ID, log.FieldOperation, log.OpUpdate)
	writeJSON(w, http.StatusOK, toTenantResponse(t))
}

func (s *Server) handleDeactivateTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Tenants.Deactivate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentTenants).InfoContext(r.Context(), "Tenant deactivated",
		log.FieldTenantID, id, log.FieldOperation, log.OpDeactivate)
	w.WriteHeader(http.StatusNoContent)
}
