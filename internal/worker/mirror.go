package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"budget/internal/amqp"
	applog "budget/internal/log"
	"budget/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// MirrorWorker copies ledger tables from the primary store to a replica,
// typically sqlite to the Google Sheet. Tables are copied verbatim and
// concurrently; one failing table does not stop the others.
type MirrorWorker struct {
	source sheets.TableReader
	target sheets.TableWriter
	names  sheets.TableNames
}

func NewMirrorWorker(source sheets.TableReader, target sheets.TableWriter, names sheets.TableNames) *MirrorWorker {
	return &MirrorWorker{source: source, target: target, names: names}
}

// HandleLedgerSaved mirrors the tables named in msg. Unknown table names
// are ignored so an old message cannot write an arbitrary sheet.
func (w *MirrorWorker) HandleLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	known := w.names.All()
	var tables []string
	for _, t := range msg.Tables {
		if slices.Contains(known, t) && !slices.Contains(tables, t) {
			tables = append(tables, t)
		} else if !slices.Contains(known, t) {
			slog.WarnContext(ctx, "Ignoring unknown table in ledger saved message", applog.FieldTable, t)
		}
	}
	if len(tables) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger saved message",
		"tables", tables,
		"transactions", msg.Transactions,
		"published_at", msg.Timestamp)
	return w.Mirror(ctx, tables...)
}

// MirrorAll copies every table. It is the backstop for lost messages.
func (w *MirrorWorker) MirrorAll(ctx context.Context) error {
	return w.Mirror(ctx, w.names.All()...)
}

// Mirror copies the given tables and joins the errors of those that failed.
func (w *MirrorWorker) Mirror(ctx context.Context, tables ...string) error {
	start := time.Now()
	errs := make([]error, len(tables))

	var g errgroup.Group
	for i, table := range tables {
		g.Go(func() error {
			errs[i] = w.mirrorTable(ctx, table)
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	slog.InfoContext(ctx, "Mirror completed",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpMirror,
		"tables", len(tables),
		"failed", failed,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return err
}

func (w *MirrorWorker) mirrorTable(ctx context.Context, table string) error {
	rows, err := w.source.ReadRows(ctx, table)
	if err != nil {
		return fmt.Errorf("mirror %s: read source: %w", table, err)
	}
	// A table the primary never wrote is left alone on the replica.
	if len(rows) == 0 {
		slog.DebugContext(ctx, "Source table empty, skipping", applog.FieldTable, table)
		return nil
	}
	if err := w.target.OverwriteRows(ctx, table, rows); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror table",
			applog.FieldComponent, applog.ComponentWorker,
			applog.FieldTable, table,
			applog.FieldError, err)
		return fmt.Errorf("mirror %s: write target: %w", table, err)
	}
	slog.InfoContext(ctx, "Table mirrored", applog.FieldTable, table, "rows", len(rows))
	return nil
}

// Run mirrors every table once, then again on each tick until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.MirrorAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup mirror failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.MirrorAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror failed", applog.FieldError, err)
			}
		}
	}
}
