package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"maintrack/internal/auth"
	"maintrack/internal/core"
	"maintrack/internal/log"
)

type principalKey struct{}

// principal is the authenticated caller of a request.
type principal struct {
	UserID   string
	Role     core.Role
	TenantID string
}

func withPrincipal(ctx context.Context, p principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFrom(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok
}

// authenticate parses the Bearer token, if any. A missing header returns
// errUnauthorized; a malformed or expired token auth.ErrInvalidToken.
func (s *Server) authenticate(r *http.Request) (principal, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return principal{}, errUnauthorized
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return principal{}, fmt.Errorf("%w: expected Bearer scheme", auth.ErrInvalidToken)
	}
	claims, err := s.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return principal{}, err
	}
	return principal{UserID: claims.UserID(), Role: claims.Role, TenantID: claims.TenantID}, nil
}

// require wraps h with authentication and a role check for action.
func (s *Server) require(action auth.Action, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.authenticate(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="maintrack"`)
			writeError(w, r, err)
			return
		}
		if !auth.Can(p.Role, action) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Forbidden action",
				log.FieldUserID, p.UserID, log.FieldRole, p.Role, "action", action)
			writeError(w, r, errForbidden)
			return
		}
		ctx := withPrincipal(r.Context(), p)
		l := log.FromContext(ctx).With(log.FieldUserID, p.UserID, log.FieldRole, string(p.Role))
		h(w, r.WithContext(log.WithLogger(ctx, l)))
	}
}

// scopedToTenant reports whether reads must be narrowed to one tenant.
func (p principal) scopedToTenant() bool {
	return p.Role == core.RoleTenant
}
