package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount of currency in integer minor units (centavos).
// Every monetary field in the engine is Money; no step of allocation may
// produce a fractional minor unit. Conversion to a display decimal happens
// only at the outermost boundary (CLI output, logs), never inside the
// engine.
type Money int64

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return m - other
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m < 0
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m > 0
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m == 0
}

// Decimal returns the amount in major units for display.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount in major units with two decimal places.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if a < b {
		return a
	}

	return b
}

// MoneyFromDecimal converts a major-unit decimal to Money. Amounts that do
// not land on a whole minor unit are rejected, never rounded.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrFractionalAmount, d.String())
	}

	return Money(shifted.IntPart()), nil
}
