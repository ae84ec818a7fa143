// Package core provides money parsing and handling utilities.
//
// Amounts are stored as signed cents (income positive, expenses
// negative). Parsing and formatting go through shopspring/decimal so
// user input like "-42.50" or "2000" round-trips exactly.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a signed decimal string to Money with half-up
// rounding past the second decimal place. It accepts both dot (12.34)
// and comma (12,34) decimal separators and an optional leading sign.
//
// Examples:
//
//	ParseAmount("-42.50") -> Money{-4250}, nil
//	ParseAmount("2000")   -> Money{200000}, nil
//	ParseAmount("12,34")  -> Money{1234}, nil
//	ParseAmount("abc")    -> Money{}, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Comma as decimal separator, but only when no dot is present:
	// "12,34" is a decimal, "2,000.50" is not supported.
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// String renders the amount as a plain signed decimal ("-42.50"),
// the form used in the CSV files.
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// Decimal returns the amount as a decimal value for arithmetic.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Abs returns the amount with a non-negative sign.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// SumAmounts totals the amounts of the given transactions.
func SumAmounts(txs []Transaction) Money {
	var total Money
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
