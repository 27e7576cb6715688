package backend

import (
	"context"
	"errors"
	"fmt"

	"maintrack/internal/amqp"
	"maintrack/internal/log"
	"maintrack/internal/memory"
	"maintrack/internal/objectstore"
	"maintrack/internal/ports"
	"maintrack/internal/sheets"
	gsheet "maintrack/internal/sheets/google"
	"maintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	objects, err := f.createObjectStore(ctx, config)
	if err != nil {
		store.Close()
		return nil, err
	}

	client, err := f.createAMQP(config)
	if err != nil {
		store.Close()
		return nil, err
	}

	result := &BackendResult{Store: store, Objects: objects, AMQP: client}
	result.Cleanup = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createStore(config Config) (ports.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		f.logger.Info("Initialized memory backend", "data_directory", dataDir)
		return memory.NewFromFiles(dataDir), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createObjectStore(ctx context.Context, config Config) (ports.ObjectStore, error) {
	if config.ReceiptStore == "gcs" {
		creds, err := gsheet.CredentialsJSON(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs credentials: %w", err)
		}
		store, err := objectstore.NewGCSStore(ctx, config.GCSBucket, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS store: %w", err)
		}
		f.logger.Info("Initialized GCS object store", "bucket", config.GCSBucket)
		return store, nil
	}

	store, err := objectstore.NewLocalStore(config.ReceiptDir, config.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local object store: %w", err)
	}
	f.logger.Info("Initialized local object store", "dir", config.ReceiptDir, "base_url", config.PublicBaseURL)
	return store, nil
}

// createAMQP is best effort for the API: without a broker records are
// still saved, only the record.created side effects are skipped.
func (f *DefaultFactory) createAMQP(config Config) (*amqp.Client, error) {
	if config.AMQPURL == "" {
		f.logger.Info("AMQP not configured, record events disabled")
		return nil, nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		if config.RequireAMQP {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.Warn("Failed to initialize AMQP client, continuing without record events", "error", err)
		return nil, nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
	return client, nil
}

// CreateLedger implements Factory.CreateLedger
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (sheets.LedgerWriter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Info("Google Sheets ledger not configured")
		return nil, nil
	}
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleLedgerSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets ledger", "sheet", config.GoogleLedgerSheet)
	return cli, nil
}
