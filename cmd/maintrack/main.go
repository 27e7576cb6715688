package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"time"

	"maintrack/internal/auth"
	"maintrack/internal/backend"
	"maintrack/internal/cache"
	"maintrack/internal/cli"
	apphttp "maintrack/internal/http"
	"maintrack/internal/log"
	"maintrack/internal/metrics"
	"maintrack/internal/objectstore"
	"maintrack/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("Failed to initialize token issuer", log.FieldError, err.Error())
		os.Exit(1)
	}

	m := metrics.New()
	analytics := cache.NewLRUCache[services.Analytics](8, cfg.AnalyticsCacheTTL)
	caches := cache.NewManager()
	caches.Register(analytics)

	reports := services.NewReportService(res.Store, res.Store, analytics, m)
	svc := apphttp.Services{
		Tenants:  services.NewTenantService(res.Store, reports, m),
		Records:  services.NewMaintenanceService(res.Store, res.Store, res.Publisher(), reports, m),
		Reports:  reports,
		Accounts: services.NewAccountService(res.Store, res.Store, tokens),
	}

	opts := apphttp.Options{
		Tokens:             tokens,
		Objects:            res.Objects,
		Ready:              res.Store.Ping,
		Metrics:            m,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}
	// local receipts are served by the API process itself
	if local, ok := res.Objects.(*objectstore.LocalStore); ok {
		opts.FilesDir = local.Dir()
		opts.FilesPath = "/files"
		if u, err := url.Parse(cfg.PublicBaseURL); err == nil && u.Path != "" && u.Path != "/" {
			opts.FilesPath = u.Path
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, opts)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) error {
		caches.Stop()
		return errors.Join(srv.Shutdown(ctx), res.Cleanup())
	})
	caches.Start(ctx, time.Minute)

	logger.Info("Starting maintrack server",
		"port", cfg.Port, "backend", cfg.DataBackend, "receipts", cfg.ReceiptStore,
		"amqp", res.AMQP != nil, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
