package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point monetary amount in minor units (cents).
// All ledger arithmetic happens on int64 minor units; decimal.Decimal is
// only used at the wire and storage boundaries.
type Money struct {
	Units    int64
	Currency string
}

// NewMoney creates a Money from minor units.
func NewMoney(units int64, currency string) Money {
	return Money{Units: units, Currency: currency}
}

// MoneyFromDecimal converts a decimal amount to Money. Amounts with more
// than two decimal places are rejected rather than silently rounded.
func MoneyFromDecimal(d decimal.Decimal, currency string) (Money, error) {
	units := d.Shift(2)
	if !units.IsInteger() {
		return Money{}, ErrInvalidAmount
	}

	return Money{Units: units.IntPart(), Currency: currency}, nil
}

// Decimal returns the amount as a 2-dp decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Units, -2)
}

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}

	return Money{Units: m.Units + other.Units, Currency: m.Currency}, nil
}

// Sub returns m - other. Currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}

	return Money{Units: m.Units - other.Units, Currency: m.Currency}, nil
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Units > 0
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Units == 0
}

// LessThan reports whether m < other, ignoring currency.
func (m Money) LessThan(other Money) bool {
	return m.Units < other.Units
}

// String formats the amount as "12.34 EUR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.Currency)
}
