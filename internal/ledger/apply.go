package ledger

import (
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// TransactionInput is a transaction as entered by the user.
type TransactionInput struct {
	Date        core.Date
	Description string
	Amount      decimal.Decimal
	FromAccount string
	ToAccount   string // optional; set for transfers
	Category    string
}

// Apply records a transaction and moves its amount. The from-account is
// debited unconditionally, so balances may go negative. With a to-account
// the amount is credited there; otherwise it leaves the ledger.
//
// On error l is unchanged. On success l is mutated in place and returned;
// persisting it is the caller's job, and a failed save does not undo Apply.
func Apply(l *Ledger, in TransactionInput) (*Ledger, error) {
	tx := core.Transaction{
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		FromAccount: strings.TrimSpace(in.FromAccount),
		ToAccount:   strings.TrimSpace(in.ToAccount),
		Category:    strings.TrimSpace(in.Category),
	}
	if err := tx.Validate(); err != nil {
		return l, err
	}

	from := l.accountIndex(tx.FromAccount)
	if from < 0 {
		return l, &core.ValidationError{Field: "from_account", Err: core.ErrUnknownAccount}
	}
	to := -1
	if tx.IsTransfer() {
		if to = l.accountIndex(tx.ToAccount); to < 0 {
			return l, &core.ValidationError{Field: "to_account", Err: core.ErrUnknownAccount}
		}
	}
	if l.categoryIndex(tx.Category) < 0 {
		return l, &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
	}

	l.Transactions = append(l.Transactions, tx)
	l.Accounts[from].Balance = l.Accounts[from].Balance.Sub(tx.Amount)
	if to >= 0 {
		l.Accounts[to].Balance = l.Accounts[to].Balance.Add(tx.Amount)
	}
	return l, nil
}
