package core

import "github.com/shopspring/decimal"

// CategorySpend compares what was spent in a category with its limit.
// Remaining goes negative once the budget is exceeded.
type CategorySpend struct {
	Category     string
	MonthlyLimit decimal.Decimal
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
}

// Overspent reports whether spending exceeded the limit.
func (c CategorySpend) Overspent() bool {
	return c.Remaining.IsNegative()
}

// Summary is the aggregated view over a ledger.
type Summary struct {
	Year  int // zero when not filtered by month
	Month int // 1-12, zero when not filtered

	Categories   []CategorySpend
	TotalBudget  decimal.Decimal
	TotalSpent   decimal.Decimal
	TotalBalance decimal.Decimal
}
