package backend

import (
	"fmt"

	"maintrack/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: "data",

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		ReceiptStore:  appConfig.ReceiptStore,
		ReceiptDir:    appConfig.ReceiptDir,
		PublicBaseURL: appConfig.PublicBaseURL,
		GCSBucket:     appConfig.GCSBucket,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleLedgerSheet:   appConfig.GoogleLedgerSheet,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.RequireAMQP && c.AMQPURL == "" {
		return fmt.Errorf("AMQP URL is required")
	}

	switch c.ReceiptStore {
	case "", "local":
		if c.ReceiptDir == "" {
			return fmt.Errorf("receipt directory is required for local receipt store")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs receipt store")
		}
	default:
		return fmt.Errorf("invalid receipt store: %s", c.ReceiptStore)
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}
