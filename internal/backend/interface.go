package backend

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/sheets"
)

// CleanupFunc releases the resources behind a backend.
type CleanupFunc func() error

// BackendResult is a ready table store plus the optional event publisher
// that goes with it. Events is nil when AMQP is not configured.
type BackendResult struct {
	Tables  sheets.TableStore
	Events  amqp.Publisher
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Azure Table Storage
	AzureTableServiceURL string
	AzureTableName       string

	// Ledger events, any backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Names sheets.TableNames
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
	AzureBackend  BackendType = "aztables"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend, AzureBackend:
		return true
	default:
		return false
	}
}
