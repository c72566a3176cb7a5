package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"budget/internal/core"
	"budget/internal/ledger"
	applog "budget/internal/log"

	"github.com/shopspring/decimal"
)

// Amounts are encoded as JSON strings by decimal.Decimal, so no precision
// is lost on the way out.

type accountDTO struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type categoryDTO struct {
	Name         string          `json:"name"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
}

type transactionDTO struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account,omitempty"`
	Category    string          `json:"category"`
}

type ledgerDTO struct {
	Accounts     []accountDTO     `json:"accounts"`
	Categories   []categoryDTO    `json:"categories"`
	Transactions []transactionDTO `json:"transactions"`
	Pending      []string         `json:"pending_tables,omitempty"`
}

type spendDTO struct {
	Category     string          `json:"category"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Overspent    bool            `json:"overspent"`
}

type summaryDTO struct {
	Year         int             `json:"year,omitempty"`
	Month        int             `json:"month,omitempty"`
	Categories   []spendDTO      `json:"categories"`
	TotalBudget  decimal.Decimal `json:"total_budget"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind"`
	Field   string   `json:"field,omitempty"`
	Pending []string `json:"pending_tables,omitempty"`
}

func newAccountDTO(a core.Account) accountDTO {
	return accountDTO{Name: a.Name, Balance: a.Balance}
}

func newCategoryDTO(c core.BudgetCategory) categoryDTO {
	return categoryDTO{Name: c.Name, MonthlyLimit: c.MonthlyLimit}
}

func newTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		Date:        t.Date.String(),
		Description: t.Description,
		Amount:      t.Amount,
		FromAccount: t.FromAccount,
		ToAccount:   t.ToAccount,
		Category:    t.Category,
	}
}

func newLedgerDTO(l *ledger.Ledger, pending []ledger.Table) ledgerDTO {
	out := ledgerDTO{
		Accounts:     make([]accountDTO, 0, len(l.Accounts)),
		Categories:   make([]categoryDTO, 0, len(l.Categories)),
		Transactions: make([]transactionDTO, 0, len(l.Transactions)),
		Pending:      tableNames(pending),
	}
	for _, a := range l.Accounts {
		out.Accounts = append(out.Accounts, newAccountDTO(a))
	}
	for _, c := range l.Categories {
		out.Categories = append(out.Categories, newCategoryDTO(c))
	}
	for _, t := range l.Transactions {
		out.Transactions = append(out.Transactions, newTransactionDTO(t))
	}
	return out
}

func newSummaryDTO(s core.Summary) summaryDTO {
	out := summaryDTO{
		Year:         s.Year,
		Month:        s.Month,
		Categories:   make([]spendDTO, 0, len(s.Categories)),
		TotalBudget:  s.TotalBudget,
		TotalSpent:   s.TotalSpent,
		TotalBalance: s.TotalBalance,
	}
	for _, c := range s.Categories {
		out.Categories = append(out.Categories, spendDTO{
			Category:     c.Category,
			MonthlyLimit: c.MonthlyLimit,
			Spent:        c.Spent,
			Remaining:    c.Remaining,
			Overspent:    c.Overspent(),
		})
	}
	return out
}

func tableNames(tables []ledger.Table) []string {
	if len(tables) == 0 {
		return nil
	}
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", applog.FieldError, err)
	}
}

// statusFor maps the error taxonomy to a status code and error kind.
func statusFor(err error) (int, string) {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, "bad_request"
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	case core.IsConnectivity(err):
		return http.StatusBadGateway, applog.ErrorTypeConnectivity
	case core.IsDataShape(err):
		return http.StatusBadGateway, applog.ErrorTypeDataShape
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

// writeError renders err and logs server-side failures. Internal errors
// are not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error, pending []ledger.Table) {
	status, kind := statusFor(err)
	resp := errorResponse{Error: err.Error(), Kind: kind, Pending: tableNames(pending)}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}
	if status >= 500 {
		applog.LogError(r.Context(), "Request failed", err, kind, op, nil)
	}
	writeJSON(w, status, resp)
}
