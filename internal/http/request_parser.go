package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 64 << 10

// badRequestError means the request could not be decoded at all, as
// opposed to a well-formed request with invalid values.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// amountField accepts an amount as a JSON string ("12,50") or number (12.5).
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null":
		*a = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("amount must be a string or a number")
		}
		*a = amountField(n.String())
		return nil
	}
}

type accountRequest struct {
	Name    string      `json:"name"`
	Balance amountField `json:"balance"`
}

type categoryRequest struct {
	Name         string      `json:"name"`
	MonthlyLimit amountField `json:"monthly_limit"`
}

type transactionRequest struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	FromAccount string      `json:"from_account"`
	ToAccount   string      `json:"to_account"`
	Category    string      `json:"category"`
}

// decodeJSON reads a single JSON object into dst. Unknown fields and
// trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return badRequest("content type must be application/json")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return badRequest("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// parseStartingAmount parses an opening balance or limit. Blank is zero;
// the sign is checked by the ledger.
func parseStartingAmount(field string, v amountField) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(v))
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

// toTransactionInput converts the request. A missing date means today.
func (req transactionRequest) toTransactionInput(now time.Time) (ledger.TransactionInput, error) {
	date := core.NewDate(now.Year(), int(now.Month()), now.Day())
	if s := strings.TrimSpace(req.Date); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return ledger.TransactionInput{}, &core.ValidationError{Field: "date", Err: err}
		}
		date = d
	}

	amount, err := core.ParsePositiveAmount(string(req.Amount))
	if err != nil {
		return ledger.TransactionInput{}, &core.ValidationError{Field: "amount", Err: err}
	}

	return ledger.TransactionInput{
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		FromAccount: sanitizeInput(req.FromAccount),
		ToAccount:   sanitizeInput(req.ToAccount),
		Category:    sanitizeInput(req.Category),
	}, nil
}

// parseSummaryQuery reads ?year=&month=. Both absent means every
// transaction; giving only one of them is an error.
func parseSummaryQuery(r *http.Request) (year, month int, err error) {
	q := r.URL.Query()
	ys, ms := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if ys == "" && ms == "" {
		return 0, 0, nil
	}
	if ys == "" || ms == "" {
		return 0, 0, badRequest("year and month must be given together")
	}
	if year, err = strconv.Atoi(ys); err != nil || year < 1 || year > 9999 {
		return 0, 0, badRequest("invalid year %q", ys)
	}
	if month, err = strconv.Atoi(ms); err != nil || month < 1 || month > 12 {
		return 0, 0, badRequest("invalid month %q", ms)
	}
	return year, month, nil
}

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// parseRecentLimit reads ?limit= for the recent transactions list.
func parseRecentLimit(r *http.Request) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get("limit"))
	if s == "" {
		return defaultRecentLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxRecentLimit {
		return 0, badRequest("invalid limit %q: must be between 1 and %d", s, maxRecentLimit)
	}
	return n, nil
}

// sanitizeInput trims s and drops control characters, keeping tabs and
// line breaks.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
