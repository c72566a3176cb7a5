package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cli"
	applog "budget/internal/log"
	"budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
	"budget/internal/storage"
	"budget/internal/worker"

	"golang.org/x/sync/errgroup"
)

// budget-worker mirrors the sqlite tables written by the server into the
// Google Sheet, on every LedgerSaved message and on a fixed interval.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	source, err := storage.NewSQLiteTables(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite tables", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer source.Close()

	target, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, gsheet.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	names := sheets.TableNames{
		Accounts:     cfg.AccountsSheetName,
		Budget:       cfg.BudgetSheetName,
		Transactions: cfg.TransactionsSheetName,
	}
	mirror := worker.NewMirrorWorker(source, target, names)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if writes, err := source.LastWrites(ctx); err != nil {
		logger.Warn("Could not read table write log", applog.FieldError, err)
	} else {
		for _, w := range writes {
			logger.Info("Primary table state", applog.FieldTable, w.Sheet, "rows", w.RowCount, "written_at", w.WrittenAt)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeLedgerSaved(gctx, mirror.HandleLedgerSaved)
	})
	g.Go(func() error {
		return mirror.Run(gctx, cfg.MirrorInterval)
	})

	logger.Info("Starting budget-worker",
		"interval", cfg.MirrorInterval,
		"queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
