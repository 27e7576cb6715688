package http

import (
	"errors"
	"net/http"

	"maintrack/internal/auth"
	"maintrack/internal/core"
	"maintrack/internal/log"
	"maintrack/internal/services"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Failed login",
				log.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      toUserResponse(sess.User),
	})
}

// handleCreateAccount requires an admin, except for the very first
// account, which may be created anonymously and must be an admin.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p, authErr := s.authenticate(r)
	bootstrap := false
	if authErr != nil {
		if !errors.Is(authErr, errUnauthorized) {
			writeError(w, r, authErr)
			return
		}
		needs, err := s.svc.Accounts.NeedsBootstrap(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !needs {
			writeError(w, r, authErr)
			return
		}
		bootstrap = true
	} else if !auth.Can(p.Role, auth.ActionCreateAccounts) {
		writeError(w, r, errForbidden)
		return
	}

	var req accountRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if bootstrap && core.Role(req.Role) != core.RoleAdmin {
		writeError(w, r, errForbidden)
		return
	}

	create := s.svc.Accounts.CreateAccount
	if bootstrap {
		create = s.svc.Accounts.Bootstrap
	}
	u, err := create(r.Context(), services.SignUp{
		Email:    req.Email,
		Password: req.Password,
		Confirm:  req.Confirm,
		Role:     core.Role(req.Role),
		TenantID: req.TenantID,
	})
	if errors.Is(err, core.ErrAlreadyBootstrapped) {
		// another request created the first account in the meantime
		writeError(w, r, errUnauthorized)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentAccounts).InfoContext(r.Context(), "Account created",
		log.FieldUserID, u.ID, log.FieldRole, string(u.Role), "bootstrap", bootstrap)
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}
