package sheets

import "context"

// Ports for outbound table store adapters. A table is a named grid of
// string cells; row 0 is the header.
type (
	TableReader interface {
		// ReadRows returns every row of the table, header included.
		ReadRows(ctx context.Context, table string) ([][]string, error)
	}

	TableWriter interface {
		// OverwriteRows replaces the whole table, starting at the first cell.
		OverwriteRows(ctx context.Context, table string, rows [][]string) error
	}

	TableStore interface {
		TableReader
		TableWriter
	}
)

// Default table names in the budget spreadsheet.
const (
	AccountsTable     = "Accounts"
	BudgetTable       = "Budget"
	TransactionsTable = "Transactions"
)

// TableNames holds the table names used by a ledger.
type TableNames struct {
	Accounts     string
	Budget       string
	Transactions string
}

// DefaultTableNames returns the standard spreadsheet layout.
func DefaultTableNames() TableNames {
	return TableNames{
		Accounts:     AccountsTable,
		Budget:       BudgetTable,
		Transactions: TransactionsTable,
	}
}

// All returns the names in load order.
func (n TableNames) All() []string {
	return []string{n.Accounts, n.Budget, n.Transactions}
}
