package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestTables(t *testing.T) *SQLiteTables {
	t.Helper()
	s, err := NewSQLiteTables(filepath.Join(t.TempDir(), "nested", "budget.db"))
	if err != nil {
		t.Fatalf("NewSQLiteTables: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteTables_MissingTableIsEmpty(t *testing.T) {
	s := newTestTables(t)
	rows, err := s.ReadRows(context.Background(), "Accounts")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %v", rows)
	}
}

func TestSQLiteTables_OverwriteReplacesRows(t *testing.T) {
	s := newTestTables(t)
	ctx := context.Background()

	first := [][]string{{"Name", "Balance"}, {"Checking", "100"}, {"Savings", "5.5"}}
	if err := s.OverwriteRows(ctx, "Accounts", first); err != nil {
		t.Fatalf("OverwriteRows: %v", err)
	}
	second := [][]string{{"Name", "Balance"}, {"Checking", "80"}}
	if err := s.OverwriteRows(ctx, "Accounts", second); err != nil {
		t.Fatalf("OverwriteRows: %v", err)
	}
	if err := s.OverwriteRows(ctx, "Budget", [][]string{{"Name", "Monthly Limit"}, {}}); err != nil {
		t.Fatalf("OverwriteRows: %v", err)
	}

	got, err := s.ReadRows(ctx, "Accounts")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Errorf("ReadRows = %v, want %v", got, second)
	}

	budget, err := s.ReadRows(ctx, "Budget")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(budget) != 2 || len(budget[1]) != 0 {
		t.Errorf("empty row not preserved: %v", budget)
	}

	writes, err := s.LastWrites(ctx)
	if err != nil {
		t.Fatalf("LastWrites: %v", err)
	}
	if len(writes) != 2 || writes[0].Sheet != "Accounts" || writes[0].RowCount != 2 {
		t.Errorf("unexpected writes: %+v", writes)
	}
}

func TestSQLiteTables_ReopenRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	s, err := NewSQLiteTables(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rows := [][]string{{"Name"}, {"Food"}}
	if err := s.OverwriteRows(context.Background(), "Budget", rows); err != nil {
		t.Fatalf("OverwriteRows: %v", err)
	}
	s.Close()

	s, err = NewSQLiteTables(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.ReadRows(context.Background(), "Budget")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("ReadRows after reopen = %v, want %v", got, rows)
	}
}
