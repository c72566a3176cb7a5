// Package ledger holds the budget ledger: accounts, budget categories and
// transactions, the operations that change them, and their synchronization
// with a table store.
//
// A Ledger is a plain value owned by its caller. Operations either return
// an error and leave the ledger untouched, or apply the whole change.
package ledger

import (
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// Ledger is the combined set of accounts, categories and transactions.
// Slices keep definition order. Lookups are linear; a personal ledger
// holds a handful of accounts and categories.
type Ledger struct {
	Accounts     []core.Account
	Categories   []core.BudgetCategory
	Transactions []core.Transaction
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Clone returns a deep copy of l.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{
		Accounts:     append([]core.Account(nil), l.Accounts...),
		Categories:   append([]core.BudgetCategory(nil), l.Categories...),
		Transactions: append([]core.Transaction(nil), l.Transactions...),
	}
}

// Account returns the account with the given name.
func (l *Ledger) Account(name string) (core.Account, bool) {
	if i := l.accountIndex(name); i >= 0 {
		return l.Accounts[i], true
	}
	return core.Account{}, false
}

// Category returns the budget category with the given name.
func (l *Ledger) Category(name string) (core.BudgetCategory, bool) {
	if i := l.categoryIndex(name); i >= 0 {
		return l.Categories[i], true
	}
	return core.BudgetCategory{}, false
}

// AddAccount creates an account with its starting balance.
func (l *Ledger) AddAccount(name string, balance decimal.Decimal) error {
	a := core.Account{Name: strings.TrimSpace(name), Balance: balance}
	if err := a.Validate(); err != nil {
		return err
	}
	if l.accountIndex(a.Name) >= 0 {
		return &core.ValidationError{Field: "account", Err: core.ErrDuplicateAccount}
	}
	l.Accounts = append(l.Accounts, a)
	return nil
}

// AddCategory creates a budget category.
func (l *Ledger) AddCategory(name string, limit decimal.Decimal) error {
	c := core.BudgetCategory{Name: strings.TrimSpace(name), MonthlyLimit: limit}
	if err := c.Validate(); err != nil {
		return err
	}
	if l.categoryIndex(c.Name) >= 0 {
		return &core.ValidationError{Field: "category", Err: core.ErrDuplicateCategory}
	}
	l.Categories = append(l.Categories, c)
	return nil
}

// ReplaceCategory swaps the limit of an existing category in place,
// keeping its position.
func (l *Ledger) ReplaceCategory(name string, limit decimal.Decimal) error {
	c := core.BudgetCategory{Name: strings.TrimSpace(name), MonthlyLimit: limit}
	if err := c.Validate(); err != nil {
		return err
	}
	i := l.categoryIndex(c.Name)
	if i < 0 {
		return &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
	}
	l.Categories[i] = c
	return nil
}

// TotalBalance sums every account balance.
func (l *Ledger) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, a := range l.Accounts {
		total = total.Add(a.Balance)
	}
	return total
}

func (l *Ledger) accountIndex(name string) int {
	for i, a := range l.Accounts {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (l *Ledger) categoryIndex(name string) int {
	for i, c := range l.Categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}
