package backend

import (
	"context"

	"maintrack/internal/amqp"
	"maintrack/internal/ports"
	"maintrack/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is what a process needs to serve the domain: a store,
// an object store and, when AMQP is configured, an event client.
type BackendResult struct {
	Store   ports.Store
	Objects ports.ObjectStore
	// AMQP is nil when no broker is configured.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the record publisher, or nil without a broker. It
// never returns a typed nil.
func (r *BackendResult) Publisher() ports.RecordPublisher {
	if r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateLedger returns nil, nil when no spreadsheet is configured.
	CreateLedger(ctx context.Context, config Config) (sheets.LedgerWriter, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend seed directory
	DataDirectory string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// RequireAMQP makes a broker connection failure fatal (worker).
	RequireAMQP bool

	ReceiptStore  string
	ReceiptDir    string
	PublicBaseURL string
	GCSBucket     string

	GoogleSpreadsheetID string
	GoogleLedgerSheet   string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
