package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	applog "budget/internal/log"
	"budget/internal/sheets"
)

// Table identifies one of the three ledger tables.
type Table int

const (
	AccountsTable Table = iota
	BudgetTable
	TransactionsTable
)

// AllTables lists the tables in load and save order.
var AllTables = []Table{AccountsTable, BudgetTable, TransactionsTable}

// Store synchronizes a Ledger with a table store. Tables are read and
// written independently: a failure on one table neither blocks nor undoes
// the others.
type Store struct {
	tables sheets.TableStore
	names  sheets.TableNames
}

func NewStore(tables sheets.TableStore, names sheets.TableNames) *Store {
	return &Store{tables: tables, names: names}
}

// Names returns the configured table names.
func (s *Store) Names() sheets.TableNames {
	return s.names
}

// TableName returns the configured name of t.
func (s *Store) TableName(t Table) string {
	switch t {
	case AccountsTable:
		return s.names.Accounts
	case BudgetTable:
		return s.names.Budget
	default:
		return s.names.Transactions
	}
}

// Load reads all three tables. The returned ledger holds every table that
// loaded; tables that failed are left empty and their errors are joined.
func (s *Store) Load(ctx context.Context) (*Ledger, error) {
	l := New()
	var errs []error
	for _, t := range AllTables {
		if err := s.loadTable(ctx, l, t); err != nil {
			slog.ErrorContext(ctx, "Failed to load table",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldOperation, applog.OpRead,
				applog.FieldTable, s.TableName(t),
				applog.FieldError, err)
			errs = append(errs, err)
		}
	}
	return l, errors.Join(errs...)
}

// LoadTable replaces one table of l with the store's content. On error l is
// unchanged.
func (s *Store) LoadTable(ctx context.Context, l *Ledger, t Table) error {
	fresh := New()
	if err := s.loadTable(ctx, fresh, t); err != nil {
		return err
	}
	switch t {
	case AccountsTable:
		l.Accounts = fresh.Accounts
	case BudgetTable:
		l.Categories = fresh.Categories
	default:
		l.Transactions = fresh.Transactions
	}
	return nil
}

func (s *Store) loadTable(ctx context.Context, l *Ledger, t Table) error {
	name := s.TableName(t)
	rows, err := s.tables.ReadRows(ctx, name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	switch t {
	case AccountsTable:
		l.Accounts, err = DecodeAccounts(name, rows)
	case BudgetTable:
		l.Categories, err = DecodeCategories(name, rows)
	default:
		l.Transactions, err = DecodeTransactions(name, rows)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	slog.DebugContext(ctx, "Table loaded", applog.FieldTable, name, "rows", len(rows))
	return nil
}

// Save overwrites all three tables, header included.
func (s *Store) Save(ctx context.Context, l *Ledger) error {
	return s.SaveTables(ctx, l, AllTables...)
}

// SaveTables overwrites the given tables. Every table is attempted; the
// errors of those that failed are joined.
func (s *Store) SaveTables(ctx context.Context, l *Ledger, tables ...Table) error {
	var errs []error
	for _, t := range tables {
		name := s.TableName(t)
		var rows [][]string
		switch t {
		case AccountsTable:
			rows = EncodeAccounts(l.Accounts)
		case BudgetTable:
			rows = EncodeCategories(l.Categories)
		default:
			rows = EncodeTransactions(l.Transactions)
		}
		if err := s.tables.OverwriteRows(ctx, name, rows); err != nil {
			slog.ErrorContext(ctx, "Failed to save table",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldOperation, applog.OpSave,
				applog.FieldTable, name,
				applog.FieldError, err)
			errs = append(errs, fmt.Errorf("save %s: %w", name, err))
			continue
		}
		slog.InfoContext(ctx, "Table saved", applog.FieldTable, name, "rows", len(rows)-1)
	}
	return errors.Join(errs...)
}

func (t Table) String() string {
	switch t {
	case AccountsTable:
		return "accounts"
	case BudgetTable:
		return "budget"
	case TransactionsTable:
		return "transactions"
	default:
		return fmt.Sprintf("table(%d)", int(t))
	}
}
