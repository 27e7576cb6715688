// Package cli provides the process bootstrap shared by cmd/maintrack,
// cmd/maintrack-worker and cmd/maintrack-admin, and the admin commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"maintrack/internal/config"
	"maintrack/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = component
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads .env and the environment configuration and returns the
// configured logger. Validation is left to the caller since the server and
// the worker check different settings.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	return cfg, SetupLogger(cfg, component)
}

// MustValidate runs validate and exits the process on failure.
func MustValidate(logger *log.Logger, validate func() error) {
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that is cancelled on SIGINT or SIGTERM, and a channel
// closed once cleanup has run or the timeout expired.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context) error) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
		cancel()

		if cleanup == nil {
			return
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Error("Shutdown cleanup failed", log.FieldError, err.Error())
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
