package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose X-Forwarded-For is honored.
	TrustedProxies     []string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sessions
	JWTSecret  string
	SessionTTL time.Duration

	// Receipts and archived reports
	ReceiptStore  string
	ReceiptDir    string
	PublicBaseURL string
	GCSBucket     string

	// Google Sheets ledger
	GoogleSpreadsheetID string
	GoogleLedgerSheet   string
	// ReconcileInterval is how often the worker backfills missing ledger rows.
	ReconcileInterval   time.Duration

	AnalyticsCacheTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validBackends      = []string{"memory", "sqlite"}
	validReceiptStores = []string{"gcs", "local"}
	validLogFormats    = []string{"json", "text"}
)

func Load() *Config {
	port := getEnv("PORT", "8081")
	return &Config{
		Port:               port,
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/maintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "maintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_created"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),

		ReceiptStore:  getEnv("RECEIPT_STORE", "local"),
		ReceiptDir:    getEnv("RECEIPT_DIR", "./data/files"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port+"/files"), "/"),
		GCSBucket:     getEnv("GCS_BUCKET", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleLedgerSheet:   getEnv("GOOGLE_LEDGER_SHEET", "Ledger"),
		ReconcileInterval:   getEnvDuration("RECONCILE_INTERVAL", time.Hour),

		AnalyticsCacheTTL: getEnvDuration("ANALYTICS_CACHE_TTL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(filepath.Dir(c.SQLiteDBPath)); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
		}
	}

	// AMQP is optional; without it no record events are published
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	switch c.ReceiptStore {
	case "local":
		if c.ReceiptDir == "" {
			errors = append(errors, "RECEIPT_DIR cannot be empty when using local receipt store")
		}
		if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid PUBLIC_BASE_URL '%s': must be an absolute URL", c.PublicBaseURL))
		}
	case "gcs":
		if c.GCSBucket == "" {
			errors = append(errors, "GCS_BUCKET is required when using gcs receipt store")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid receipt store '%s': must be one of %v", c.ReceiptStore, validReceiptStores))
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleLedgerSheet == "" {
		errors = append(errors, "GOOGLE_LEDGER_SHEET cannot be empty when GOOGLE_SPREADSHEET_ID is set")
	}

	if c.RateLimitPerMinute < 1 || c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be between 1 and 10000", c.RateLimitPerMinute))
	}

	if c.AnalyticsCacheTTL < time.Second || c.AnalyticsCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid analytics cache TTL %v: must be between 1 second and 24 hours", c.AnalyticsCacheTTL))
	}

	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks only what the worker process needs: a store and AMQP.
func (c *Config) ValidateWorker() error {
	var errors []string
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required by the worker")
	}
	if c.ReceiptStore == "gcs" && c.GCSBucket == "" {
		errors = append(errors, "GCS_BUCKET is required when using gcs receipt store")
	}
	if c.ReconcileInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("reconcile interval must be at least 1m, got %v", c.ReconcileInterval))
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
