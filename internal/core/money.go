// Package core provides the ledger records and money handling utilities.
//
// Amounts are decimal.Decimal values so balances stay exact across any
// number of transactions.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Limits on amounts read from cells or requests. Exponent bounds are
// checked before any arithmetic: decimal rescales to the smaller exponent,
// so "1e999999999" would otherwise expand into a billion digits.
const (
	maxAmountLength = 32
	MinExponent     = -8
	MaxExponent     = 12
)

// MaxAmount is the largest absolute amount accepted.
var MaxAmount = decimal.New(1, MaxExponent)

// ParseAmount converts a decimal string as stored in a table cell.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign. A blank cell is zero. Amounts above MaxAmount or with more
// than 8 decimal places are ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if len(s) > maxAmountLength {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp < MinExponent || exp > MaxExponent {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePositiveAmount parses user input for a transaction amount.
//
// Signs are rejected: direction is encoded by the accounts, not the sign.
//
// Examples:
//
//	ParsePositiveAmount("12.34") -> 12.34, nil
//	ParsePositiveAmount("12,34") -> 12.34, nil
//	ParsePositiveAmount("0")     -> 0, ErrInvalidAmount
//	ParsePositiveAmount("-5")    -> 0, ErrInvalidAmount
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount for a table cell.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
