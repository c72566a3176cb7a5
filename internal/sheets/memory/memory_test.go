package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreOverwriteAndRead(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows, err := s.ReadRows(ctx, "Accounts")
	if err != nil || len(rows) != 0 {
		t.Fatalf("unexpected rows for empty table: %v err=%v", rows, err)
	}

	in := [][]string{{"Account", "Balance"}, {"Checking", "100"}}
	if err := s.OverwriteRows(ctx, "Accounts", in); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	in[1][1] = "mutated"

	rows, _ = s.ReadRows(ctx, "Accounts")
	if len(rows) != 2 || rows[1][1] != "100" {
		t.Fatalf("store shares caller slices: %v", rows)
	}
	rows[1][0] = "mutated"
	again, _ := s.ReadRows(ctx, "Accounts")
	if again[1][0] != "Checking" {
		t.Fatalf("read result shares store slices: %v", again)
	}

	if err := s.OverwriteRows(ctx, "Accounts", [][]string{{"Account", "Balance"}}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	rows, _ = s.ReadRows(ctx, "Accounts")
	if len(rows) != 1 {
		t.Fatalf("overwrite should replace all rows, got %v", rows)
	}
	if s.Writes() != 2 {
		t.Fatalf("writes = %d, want 2", s.Writes())
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No files -> empty tables
	s := NewFromFiles(dir, "Accounts", "Budget")
	if rows, _ := s.ReadRows(context.Background(), "Accounts"); len(rows) != 0 {
		t.Fatalf("expected empty table when file missing, got %v", rows)
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("Accounts.csv", "Account,Balance\nChecking,100\nSavings, 0\n")
	mustWrite("Budget.csv", "Category,Monthly Budget\nFood,50\n")

	s = NewFromFiles(dir, "Accounts", "Budget", "Transactions")
	ctx := context.Background()
	acc, _ := s.ReadRows(ctx, "Accounts")
	if len(acc) != 3 || acc[2][0] != "Savings" || acc[2][1] != "0" {
		t.Fatalf("unexpected accounts: %v", acc)
	}
	bud, _ := s.ReadRows(ctx, "Budget")
	if len(bud) != 2 || bud[1][0] != "Food" {
		t.Fatalf("unexpected budget: %v", bud)
	}
	if tx, _ := s.ReadRows(ctx, "Transactions"); len(tx) != 0 {
		t.Fatalf("expected no transactions, got %v", tx)
	}
}
