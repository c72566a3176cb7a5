package ledger

import (
	"fmt"
	"strings"

	"budget/internal/core"
)

// Column headers of the three tables.
const (
	ColAccount = "Account"
	ColBalance = "Balance"

	ColCategory      = "Category"
	ColMonthlyBudget = "Monthly Budget"

	ColDate        = "Date"
	ColDescription = "Description"
	ColAmount      = "Amount"
	ColFromAccount = "From Account"
	ColToAccount   = "To Account"
)

var (
	AccountColumns     = []string{ColAccount, ColBalance}
	BudgetColumns      = []string{ColCategory, ColMonthlyBudget}
	TransactionColumns = []string{ColDate, ColDescription, ColAmount, ColFromAccount, ColToAccount, ColCategory}
)

// EncodeAccounts renders the Accounts table, header first.
func EncodeAccounts(accounts []core.Account) [][]string {
	rows := make([][]string, 0, len(accounts)+1)
	rows = append(rows, append([]string(nil), AccountColumns...))
	for _, a := range accounts {
		rows = append(rows, []string{a.Name, core.FormatAmount(a.Balance)})
	}
	return rows
}

// EncodeCategories renders the Budget table, header first.
func EncodeCategories(categories []core.BudgetCategory) [][]string {
	rows := make([][]string, 0, len(categories)+1)
	rows = append(rows, append([]string(nil), BudgetColumns...))
	for _, c := range categories {
		rows = append(rows, []string{c.Name, core.FormatAmount(c.MonthlyLimit)})
	}
	return rows
}

// EncodeTransactions renders the Transactions table, header first.
func EncodeTransactions(transactions []core.Transaction) [][]string {
	rows := make([][]string, 0, len(transactions)+1)
	rows = append(rows, append([]string(nil), TransactionColumns...))
	for _, tx := range transactions {
		rows = append(rows, []string{
			tx.Date.String(),
			tx.Description,
			core.FormatAmount(tx.Amount),
			tx.FromAccount,
			tx.ToAccount,
			tx.Category,
		})
	}
	return rows
}

// DecodeAccounts parses the rows below the header. Blank rows are skipped
// and a blank balance reads as zero.
func DecodeAccounts(table string, rows [][]string) ([]core.Account, error) {
	var out []core.Account
	seen := map[string]bool{}
	err := eachRecord(table, rows, AccountColumns, func(n int, cols []string) error {
		if cols[0] == "" {
			return shapeErr(table, n, "missing %s", ColAccount)
		}
		bal, err := core.ParseAmount(cols[1])
		if err != nil {
			return shapeErr(table, n, "%s %q is not a number", ColBalance, cols[1])
		}
		if seen[cols[0]] {
			return shapeErr(table, n, "duplicate account %q", cols[0])
		}
		seen[cols[0]] = true
		out = append(out, core.Account{Name: cols[0], Balance: bal})
		return nil
	})
	return out, err
}

// DecodeCategories parses the rows below the header.
func DecodeCategories(table string, rows [][]string) ([]core.BudgetCategory, error) {
	var out []core.BudgetCategory
	seen := map[string]bool{}
	err := eachRecord(table, rows, BudgetColumns, func(n int, cols []string) error {
		if cols[0] == "" {
			return shapeErr(table, n, "missing %s", ColCategory)
		}
		limit, err := core.ParseAmount(cols[1])
		if err != nil {
			return shapeErr(table, n, "%s %q is not a number", ColMonthlyBudget, cols[1])
		}
		if seen[cols[0]] {
			return shapeErr(table, n, "duplicate category %q", cols[0])
		}
		seen[cols[0]] = true
		out = append(out, core.BudgetCategory{Name: cols[0], MonthlyLimit: limit})
		return nil
	})
	return out, err
}

// DecodeTransactions parses the rows below the header. Amounts must be
// positive. References to accounts and categories are not checked here:
// tables load independently.
func DecodeTransactions(table string, rows [][]string) ([]core.Transaction, error) {
	var out []core.Transaction
	err := eachRecord(table, rows, TransactionColumns, func(n int, cols []string) error {
		date, err := core.ParseDate(cols[0])
		if err != nil {
			return shapeErr(table, n, "%s %q is not a date", ColDate, cols[0])
		}
		amount, err := core.ParseAmount(cols[2])
		if err != nil {
			return shapeErr(table, n, "%s %q is not a number", ColAmount, cols[2])
		}
		if !amount.IsPositive() {
			return shapeErr(table, n, "%s %q must be positive", ColAmount, cols[2])
		}
		out = append(out, core.Transaction{
			Date:        date,
			Description: cols[1],
			Amount:      amount,
			FromAccount: cols[3],
			ToAccount:   cols[4],
			Category:    cols[5],
		})
		return nil
	})
	return out, err
}

// eachRecord checks the header against columns and calls fn with the
// trimmed cells of every non-blank row below it. Header names match case
// insensitively. n is the 1-based sheet row.
func eachRecord(table string, rows [][]string, columns []string, fn func(n int, cols []string) error) error {
	if len(rows) == 0 {
		return nil
	}
	width := len(columns)
	if len(rows[0]) != width {
		return shapeErr(table, 1, "expected %d header columns, got %d", width, len(rows[0]))
	}
	for j, want := range columns {
		if got := strings.TrimSpace(rows[0][j]); !strings.EqualFold(got, want) {
			return shapeErr(table, 1, "header column %d is %q, expected %q", j+1, got, want)
		}
	}
	for i, row := range rows[1:] {
		n := i + 2
		if isBlank(row) {
			continue
		}
		if len(row) != width {
			return shapeErr(table, n, "expected %d columns, got %d", width, len(row))
		}
		cols := make([]string, len(row))
		for j, v := range row {
			cols[j] = strings.TrimSpace(v)
		}
		if err := fn(n, cols); err != nil {
			return err
		}
	}
	return nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func shapeErr(table string, row int, format string, args ...any) error {
	return &core.DataShapeError{Table: table, Row: row, Reason: fmt.Sprintf(format, args...)}
}
