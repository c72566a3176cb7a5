package ledger

import (
	"slices"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// Aggregate computes spend per category in category order. Every
// transaction counts towards its category, transfers included. Remaining
// is not clamped.
func Aggregate(categories []core.BudgetCategory, transactions []core.Transaction) []core.CategorySpend {
	return aggregate(categories, transactions, func(core.Transaction) bool { return true })
}

// AggregateMonth is Aggregate restricted to transactions dated in the given
// year and month.
func AggregateMonth(categories []core.BudgetCategory, transactions []core.Transaction, year, month int) []core.CategorySpend {
	return aggregate(categories, transactions, func(tx core.Transaction) bool {
		return tx.Date.InMonth(year, month)
	})
}

func aggregate(categories []core.BudgetCategory, transactions []core.Transaction, keep func(core.Transaction) bool) []core.CategorySpend {
	spent := make(map[string]decimal.Decimal, len(categories))
	for _, tx := range transactions {
		if !keep(tx) {
			continue
		}
		spent[tx.Category] = spent[tx.Category].Add(tx.Amount)
	}

	out := make([]core.CategorySpend, 0, len(categories))
	for _, c := range categories {
		s := spent[c.Name] // zero value is 0
		out = append(out, core.CategorySpend{
			Category:     c.Name,
			MonthlyLimit: c.MonthlyLimit,
			Spent:        s,
			Remaining:    c.MonthlyLimit.Sub(s),
		})
	}
	return out
}

// Summarize aggregates the whole ledger with totals. year and month of zero
// mean every transaction.
func Summarize(l *Ledger, year, month int) core.Summary {
	var rows []core.CategorySpend
	if year == 0 && month == 0 {
		rows = Aggregate(l.Categories, l.Transactions)
	} else {
		rows = AggregateMonth(l.Categories, l.Transactions, year, month)
	}
	sum := core.Summary{
		Year:         year,
		Month:        month,
		Categories:   rows,
		TotalBudget:  decimal.Zero,
		TotalSpent:   decimal.Zero,
		TotalBalance: l.TotalBalance(),
	}
	for _, r := range rows {
		sum.TotalBudget = sum.TotalBudget.Add(r.MonthlyLimit)
		sum.TotalSpent = sum.TotalSpent.Add(r.Spent)
	}
	return sum
}

// Recent returns up to n transactions, newest date first. Transactions on
// the same date keep the most recently recorded first. The input is not
// modified.
func Recent(transactions []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		return []core.Transaction{}
	}
	out := slices.Clone(transactions)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
