package ledger

import (
	"reflect"
	"testing"

	"budget/internal/core"
)

func TestAggregateExpenseScenario(t *testing.T) {
	l := New()
	_ = l.AddAccount("Checking", dec("100"))
	_ = l.AddCategory("Food", dec("50"))
	if _, err := Apply(l, TransactionInput{
		Date: core.NewDate(2025, 7, 1), Amount: dec("20"), FromAccount: "Checking", Category: "Food",
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := Aggregate(l.Categories, l.Transactions)
	if len(got) != 1 {
		t.Fatalf("expected one row, got %+v", got)
	}
	r := got[0]
	if r.Category != "Food" || !r.MonthlyLimit.Equal(dec("50")) || !r.Spent.Equal(dec("20")) || !r.Remaining.Equal(dec("30")) {
		t.Fatalf("unexpected row: %+v", r)
	}
}

func TestAggregateCountsTransfers(t *testing.T) {
	l := newTestLedger(t)
	if _, err := Apply(l, TransactionInput{
		Date: core.NewDate(2025, 7, 1), Amount: dec("30"), FromAccount: "Checking", ToAccount: "Savings", Category: "Food",
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got := Aggregate(l.Categories, l.Transactions)
	if !got[0].Spent.Equal(dec("30")) {
		t.Fatalf("transfer should count towards its category, got %+v", got[0])
	}
}

func TestAggregateOrderAndBoundaries(t *testing.T) {
	cats := []core.BudgetCategory{
		{Name: "Rent", MonthlyLimit: dec("800")},
		{Name: "Food", MonthlyLimit: dec("50")},
		{Name: "Fun", MonthlyLimit: dec("0")},
	}

	empty := Aggregate(cats, nil)
	for i, r := range empty {
		if r.Category != cats[i].Name {
			t.Fatalf("row %d = %s, want %s", i, r.Category, cats[i].Name)
		}
		if !r.Spent.IsZero() || !r.Remaining.Equal(cats[i].MonthlyLimit) {
			t.Fatalf("empty transactions should give spent=0: %+v", r)
		}
	}

	txs := []core.Transaction{
		{Date: core.NewDate(2025, 7, 1), Amount: dec("60"), FromAccount: "A", Category: "Food"},
		{Date: core.NewDate(2025, 7, 2), Amount: dec("0.10"), FromAccount: "A", Category: "Food"},
		{Date: core.NewDate(2025, 7, 2), Amount: dec("9"), FromAccount: "A", Category: "Ghost"},
	}
	got := Aggregate(cats, txs)
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	food := got[1]
	if !food.Spent.Equal(dec("60.10")) || !food.Remaining.Equal(dec("-10.10")) || !food.Overspent() {
		t.Fatalf("unexpected Food row: %+v", food)
	}
	if got[0].Overspent() {
		t.Fatalf("Rent should not be overspent")
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	_, _ = Apply(l, TransactionInput{Date: core.NewDate(2025, 7, 1), Amount: dec("12.5"), FromAccount: "Checking", Category: "Food"})
	_, _ = Apply(l, TransactionInput{Date: core.NewDate(2025, 7, 4), Amount: dec("3"), FromAccount: "Savings", Category: "Food"})

	first := Aggregate(l.Categories, l.Transactions)
	second := Aggregate(l.Categories, l.Transactions)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregate not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestAggregateMonth(t *testing.T) {
	cats := []core.BudgetCategory{{Name: "Food", MonthlyLimit: dec("50")}}
	txs := []core.Transaction{
		{Date: core.NewDate(2025, 6, 30), Amount: dec("5"), Category: "Food"},
		{Date: core.NewDate(2025, 7, 1), Amount: dec("7"), Category: "Food"},
		{Date: core.NewDate(2024, 7, 1), Amount: dec("11"), Category: "Food"},
	}
	got := AggregateMonth(cats, txs, 2025, 7)
	if !got[0].Spent.Equal(dec("7")) || !got[0].Remaining.Equal(dec("43")) {
		t.Fatalf("unexpected July row: %+v", got[0])
	}
}

func TestSummarizeTotals(t *testing.T) {
	l := newTestLedger(t)
	_ = l.AddCategory("Rent", dec("800"))
	_, _ = Apply(l, TransactionInput{Date: core.NewDate(2025, 7, 1), Amount: dec("20"), FromAccount: "Checking", Category: "Food"})
	_, _ = Apply(l, TransactionInput{Date: core.NewDate(2025, 8, 1), Amount: dec("700"), FromAccount: "Checking", Category: "Rent"})

	all := Summarize(l, 0, 0)
	if !all.TotalBudget.Equal(dec("850")) || !all.TotalSpent.Equal(dec("720")) || !all.TotalBalance.Equal(dec("-620")) {
		t.Fatalf("unexpected totals: budget=%s spent=%s balance=%s", all.TotalBudget, all.TotalSpent, all.TotalBalance)
	}

	july := Summarize(l, 2025, 7)
	if july.Year != 2025 || july.Month != 7 || !july.TotalSpent.Equal(dec("20")) {
		t.Fatalf("unexpected July summary: %+v", july)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2025, 7, 3), Description: "a"},
		{Date: core.NewDate(2025, 7, 1), Description: "b"},
		{Date: core.NewDate(2025, 7, 3), Description: "c"},
		{Date: core.NewDate(2025, 6, 30), Description: "d"},
		{Date: core.NewDate(2025, 7, 2), Description: "e"},
	}
	descriptions := func(in []core.Transaction) []string {
		var out []string
		for _, tx := range in {
			out = append(out, tx.Description)
		}
		return out
	}

	if got := descriptions(Recent(txs, 3)); !reflect.DeepEqual(got, []string{"c", "a", "e"}) {
		t.Errorf("Recent(3) = %v, want [c a e]", got)
	}
	if got := descriptions(Recent(txs, 10)); !reflect.DeepEqual(got, []string{"c", "a", "e", "b", "d"}) {
		t.Errorf("Recent(10) = %v", got)
	}
	if got := Recent(txs, 0); len(got) != 0 {
		t.Errorf("Recent(0) = %v, want none", got)
	}
	if txs[0].Description != "a" || txs[4].Description != "e" {
		t.Error("Recent must not reorder its input")
	}
}
