package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/ledger"
	applog "budget/internal/log"

	"github.com/shopspring/decimal"
)

// LedgerService owns the in-memory ledger of one session. Mutations go
// through the applier, then the touched tables are written back. A failed
// write leaves the mutation in memory and marks the table pending until
// Save succeeds.
type LedgerService struct {
	store  *ledger.Store
	events amqp.Publisher

	mu      sync.RWMutex
	current *ledger.Ledger
	loaded  bool
	pending map[ledger.Table]bool

	summaries cache.Cache[summaryKey, core.Summary]
}

type summaryKey struct{ year, month int }

const summaryCacheSize = 24

// NewLedgerService creates a service over store. events may be nil.
func NewLedgerService(store *ledger.Store, events amqp.Publisher) *LedgerService {
	return &LedgerService{
		store:   store,
		events:  events,
		current: ledger.New(),
		pending: map[ledger.Table]bool{},

		summaries: cache.NewLRU[summaryKey, core.Summary](summaryCacheSize, 0),
	}
}

// Load refreshes every table from the store. Tables that fail keep their
// previous content, so a flaky store leaves stale data rather than none.
func (s *LedgerService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	var errs []error
	for _, t := range ledger.AllTables {
		if err := s.store.LoadTable(ctx, next, t); err != nil {
			applog.LogError(ctx, "Failed to reload table", err, errorType(err), applog.OpReload,
				applog.NewFields().WithComponent(applog.ComponentLedger))
			errs = append(errs, err)
			continue
		}
		delete(s.pending, t)
	}
	s.current = next
	s.loaded = true
	s.summaries.Purge()

	slog.InfoContext(ctx, "Ledger loaded",
		"accounts", len(next.Accounts),
		"categories", len(next.Categories),
		"transactions", len(next.Transactions),
		"failed_tables", len(errs))
	return errors.Join(errs...)
}

// Snapshot returns a copy of the current ledger.
func (s *LedgerService) Snapshot() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Loaded reports whether Load has run at least once.
func (s *LedgerService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Pending lists tables whose last write failed.
func (s *LedgerService) Pending() []ledger.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.Table
	for _, t := range ledger.AllTables {
		if s.pending[t] {
			out = append(out, t)
		}
	}
	return out
}

func (s *LedgerService) AddAccount(ctx context.Context, name string, balance decimal.Decimal) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.current.AddAccount(name, balance); err != nil {
		return core.Account{}, err
	}
	s.summaries.Purge()
	acc := s.current.Accounts[len(s.current.Accounts)-1]
	slog.InfoContext(ctx, "Account created",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldAccount, acc.Name,
		applog.FieldAmount, core.FormatAmount(acc.Balance))
	return acc, s.persist(ctx, ledger.AccountsTable)
}

func (s *LedgerService) AddCategory(ctx context.Context, name string, limit decimal.Decimal) (core.BudgetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.current.AddCategory(name, limit); err != nil {
		return core.BudgetCategory{}, err
	}
	s.summaries.Purge()
	cat := s.current.Categories[len(s.current.Categories)-1]
	slog.InfoContext(ctx, "Category created",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldCategory, cat.Name,
		applog.FieldAmount, core.FormatAmount(cat.MonthlyLimit))
	return cat, s.persist(ctx, ledger.BudgetTable)
}

func (s *LedgerService) ReplaceCategory(ctx context.Context, name string, limit decimal.Decimal) (core.BudgetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.current.ReplaceCategory(name, limit); err != nil {
		return core.BudgetCategory{}, err
	}
	s.summaries.Purge()
	cat, _ := s.current.Category(name)
	slog.InfoContext(ctx, "Category replaced",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldCategory, cat.Name,
		applog.FieldAmount, core.FormatAmount(cat.MonthlyLimit))
	return cat, s.persist(ctx, ledger.BudgetTable)
}

// RecordTransaction applies in and writes the accounts and transactions
// tables. A returned ConnectivityError means the transaction was applied
// in memory but not stored.
func (s *LedgerService) RecordTransaction(ctx context.Context, in ledger.TransactionInput) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := ledger.Apply(s.current, in)
	if err != nil {
		return core.Transaction{}, err
	}
	s.current = next
	s.summaries.Purge()
	tx := next.Transactions[len(next.Transactions)-1]

	slog.InfoContext(ctx, "Transaction applied", applog.NewFields().
		WithComponent(applog.ComponentLedger).
		WithOperation(applog.OpApply).
		WithTransaction(tx.FromAccount, tx.ToAccount, tx.Category, core.FormatAmount(tx.Amount)).
		ToSlice()...)

	return tx, s.persist(ctx, ledger.AccountsTable, ledger.TransactionsTable)
}

// Save writes every table. It is the retry path after a failed write.
func (s *LedgerService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, ledger.AllTables...)
}

// Summary aggregates the current ledger. Zero year and month cover every
// transaction. Results are cached until the next mutation or load; callers
// must not modify the returned slices.
func (s *LedgerService) Summary(year, month int) core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := summaryKey{year, month}
	if sum, ok := s.summaries.Get(key); ok {
		return sum
	}
	sum := ledger.Summarize(s.current, year, month)
	s.summaries.Set(key, sum)
	return sum
}

// persist writes tables one by one and announces the ones that landed.
// Caller holds s.mu.
func (s *LedgerService) persist(ctx context.Context, tables ...ledger.Table) error {
	var (
		errs  []error
		saved []string
	)
	for _, t := range tables {
		if err := s.store.SaveTables(ctx, s.current, t); err != nil {
			s.pending[t] = true
			errs = append(errs, err)
			continue
		}
		delete(s.pending, t)
		saved = append(saved, s.store.TableName(t))
	}

	if len(saved) > 0 {
		s.publish(ctx, saved)
	}
	if len(errs) > 0 {
		return fmt.Errorf("ledger changed in memory but not fully stored: %w", errors.Join(errs...))
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, tables []string) {
	if s.events == nil {
		return
	}
	msg := amqp.NewLedgerSavedMessage(tables,
		len(s.current.Accounts), len(s.current.Categories), len(s.current.Transactions))
	if err := s.events.PublishLedgerSaved(ctx, msg); err != nil {
		// The tables are stored; the mirror catches up on its next full pass.
		slog.ErrorContext(ctx, "Failed to publish ledger saved message",
			applog.FieldComponent, applog.ComponentAMQP,
			"tables", tables,
			applog.FieldError, err)
	}
}

func errorType(err error) string {
	switch {
	case core.IsValidation(err):
		return applog.ErrorTypeValidation
	case core.IsConnectivity(err):
		return applog.ErrorTypeConnectivity
	case core.IsDataShape(err):
		return applog.ErrorTypeDataShape
	default:
		return applog.ErrorTypeInternal
	}
}
