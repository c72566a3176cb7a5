package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	applog "budget/internal/log"
	"budget/internal/sheets/azure"
	gsheet "budget/internal/sheets/google"
	"budget/internal/sheets/memory"
	"budget/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend builds the table store for config.Type and, when an AMQP
// URL is set, the ledger event publisher. A broker that cannot be reached
// is logged and events stay disabled.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	case AzureBackend:
		res, err = f.createAzureBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events",
				applog.FieldComponent, applog.ComponentBackend,
				applog.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Events = client
			res.Cleanup = chain(res.Cleanup, client.Close)
		}
	}
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	tables, err := storage.NewSQLiteTables(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite tables: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Tables: tables, Cleanup: tables.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, gsheet.Credentials{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Tables: cli}, nil
}

func (f *DefaultFactory) createAzureBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := azure.New(ctx, config.AzureTableServiceURL, config.AzureTableName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Azure table store: %w", err)
	}

	f.logger.Info("Initialized Azure Table Storage backend", "table", config.AzureTableName)
	return &BackendResult{Tables: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir, config.Names.All()...)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Tables: store}, nil
}

func chain(fns ...CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
