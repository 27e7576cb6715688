package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"maintrack/internal/auth"
	"maintrack/internal/log"
	"maintrack/internal/metrics"
	"maintrack/internal/middleware/ratelimit"
	"maintrack/internal/middleware/security"
	"maintrack/internal/middleware/trace"
	"maintrack/internal/ports"
	"maintrack/internal/services"
)

// Services groups the application services behind the API.
type Services struct {
	Tenants  *services.TenantService
	Records  *services.MaintenanceService
	Reports  *services.ReportService
	Accounts *services.AccountService
}

// Options configures the server's collaborators. Only Tokens is required.
type Options struct {
	Tokens  *auth.TokenIssuer
	Objects ports.ObjectStore
	// Ready backs /readyz; nil always reports ready.
	Ready func(ctx context.Context) error
	// FilesDir, when set, is served read-only under FilesPath.
	FilesDir           string
	FilesPath          string
	Metrics            *metrics.Metrics
	Logger             *log.Logger
	RateLimitPerMinute int
	// TrustedProxies extend the detector's default private ranges.
	TrustedProxies     []string
}

type Server struct {
	http.Server
	svc      Services
	tokens   *auth.TokenIssuer
	objects  ports.ObjectStore
	ready    func(ctx context.Context) error
	metrics  *metrics.Metrics
	validate *validator.Validate
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:      svc,
		tokens:   opts.Tokens,
		objects:  opts.Objects,
		ready:    opts.Ready,
		metrics:  opts.Metrics,
		validate: newValidator(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			log.FromContext(context.Background()).WithComponent(log.ComponentSecurity).Warn("Ignoring trusted proxy",
				"cidr", cidr, log.FieldError, err.Error())
		}
	}

	s.handle(mux, "GET /healthz", handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	s.handle(mux, "GET /metrics", opts.Metrics.Handler().ServeHTTP)

	s.handle(mux, "POST /api/login", s.handleLogin)
	s.handle(mux, "POST /api/accounts", s.handleCreateAccount)

	s.handle(mux, "GET /api/tenants", s.require(auth.ActionViewTenants, s.handleListTenants))
	s.handle(mux, "POST /api/tenants", s.require(auth.ActionManageTenants, s.handleCreateTenant))
	s.handle(mux, "GET /api/tenants/{id}", s.require(auth.ActionViewTenants, s.handleGetTenant))
	s.handle(mux, "PUT /api/tenants/{id}", s.require(auth.ActionManageTenants, s.handleUpdateTenant))
	s.handle(mux, "DELETE /api/tenants/{id}", s.require(auth.ActionManageTenants, s.handleDeactivateTenant))

	s.handle(mux, "GET /api/records", s.require(auth.ActionViewRecords, s.handleListRecords))
	s.handle(mux, "POST /api/records", s.require(auth.ActionManageRecords, s.handleCreateRecord))
	s.handle(mux, "POST /api/records/preview", s.require(auth.ActionManageRecords, s.handlePreviewRecord))
	s.handle(mux, "GET /api/records/export.pdf", s.require(auth.ActionViewRecords, s.handleExportAll))
	s.handle(mux, "GET /api/records/{id}", s.require(auth.ActionViewRecords, s.handleGetRecord))
	s.handle(mux, "GET /api/records/{id}/export/{format}", s.require(auth.ActionViewRecords, s.handleExportRecord))

	s.handle(mux, "POST /api/receipts", s.require(auth.ActionUploadReceipts, s.handleUploadReceipt))

	s.handle(mux, "GET /api/analytics", s.require(auth.ActionViewRecords, s.handleAnalytics))
	s.handle(mux, "GET /api/dashboard", s.require(auth.ActionViewRecords, s.handleDashboard))

	if opts.FilesDir != "" {
		prefix := "/" + strings.Trim(opts.FilesPath, "/") + "/"
		files := http.StripPrefix(prefix, noDirListing(http.FileServer(http.Dir(opts.FilesDir))))
		s.handle(mux, "GET "+prefix, security.StaticFileMiddleware(86400)(files).ServeHTTP)
	}

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig(), s.detector.IsHTTPS).Middleware(h)
	h = s.detector.Middleware(h)
	h = trace.NewMiddleware(s.detector.ExtractClientIP, opts.Logger, opts.Metrics).Middleware(h)
	s.Handler = h

	return s
}

// handle registers h and labels its requests with the route pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		trace.SetRoute(r.Context(), pattern)
		h(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	NewJSONResponse().Status(http.StatusTooManyRequests).Error("rate limit exceeded, try again later").Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
