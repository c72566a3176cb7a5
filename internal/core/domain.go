package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in tables and API payloads.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds transaction descriptions.
const MaxDescriptionLength = 200

type (
	Date struct {
		time.Time
	}

	Account struct {
		Name    string
		Balance decimal.Decimal
	}

	BudgetCategory struct {
		Name         string
		MonthlyLimit decimal.Decimal
	}

	// Transaction moves Amount out of FromAccount. With ToAccount set it is a
	// transfer, otherwise an expense leaving the ledger.
	Transaction struct {
		Date        Date
		Description string
		Amount      decimal.Decimal
		FromAccount string
		ToAccount   string // empty for expenses
		Category    string
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrEmptyName          = errors.New("empty name")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrUnknownAccount     = errors.New("unknown account")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrDuplicateCategory  = errors.New("category already exists")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD, optionally followed by a time of day as
// written by spreadsheet exports.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("parse date %q: expected %s", s, DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// String formats the date as YYYY-MM-DD; the zero date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// InMonth reports whether d falls in the given year and month.
func (d Date) InMonth(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "account", Err: ErrEmptyName}
	}
	if a.Balance.IsNegative() {
		return &ValidationError{Field: "balance", Err: ErrNegativeAmount}
	}
	return nil
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyName}
	}
	if c.MonthlyLimit.IsNegative() {
		return &ValidationError{Field: "monthly_limit", Err: ErrNegativeAmount}
	}
	return nil
}

// IsTransfer reports whether the transaction credits another account.
func (t Transaction) IsTransfer() bool {
	return t.ToAccount != ""
}

// Validate checks the fields that do not depend on the rest of the ledger.
// Reference checks live with the ledger.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	if !t.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if strings.TrimSpace(t.FromAccount) == "" {
		return &ValidationError{Field: "from_account", Err: ErrEmptyName}
	}
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyName}
	}
	return nil
}
