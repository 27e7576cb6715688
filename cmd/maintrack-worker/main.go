package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"maintrack/internal/backend"
	"maintrack/internal/cli"
	"maintrack/internal/log"
	"maintrack/internal/metrics"
	"maintrack/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	cli.MustValidate(logger, cfg.ValidateWorker)
	logger.Info("Starting maintrack-worker", log.FieldOperation, log.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	backendCfg.RequireAMQP = true

	factory := backend.NewFactory(logger)
	res, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	ledger, err := factory.CreateLedger(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets ledger", log.FieldError, err.Error())
		os.Exit(1)
	}
	if ledger == nil {
		logger.Info("Google Sheets ledger disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewRecordWorker(res.Store, res.Objects, ledger, metrics.New())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return res.AMQP.ConsumeRecordCreated(gctx, w.HandleRecordCreated)
	})
	g.Go(func() error {
		reconcile(gctx, logger, w)
		ticker := time.NewTicker(cfg.ReconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				reconcile(gctx, logger, w)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error(), log.FieldOperation, log.OpConsume)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

// reconcile backfills recent ledger rows; failures wait for the next tick.
func reconcile(ctx context.Context, logger *log.Logger, w *worker.RecordWorker) {
	n, err := w.ReconcileRecent(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Ledger reconcile failed", log.FieldError, err.Error())
		}
		return
	}
	if n > 0 {
		logger.Info("Ledger reconciled", "appended", n)
	}
}
