// Package core holds the budget domain model.
//
// Amounts are kept as integer cents so monthly sums are exact; conversion to
// and from decimal text happens at the edges.
package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmountCents bounds any single amount so per-user monthly sums stay
// well inside int64.
const MaxAmountCents int64 = 1_000_000_000_000

var maxAmount = decimal.New(MaxAmountCents, 0)

type Money struct {
	Cents int64
}

// MoneyFromDecimal rounds d half away from zero to whole cents. Amounts whose
// magnitude exceeds MaxAmountCents fail with ErrInvalidAmount.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if cents.Abs().GreaterThan(maxAmount) {
		return Money{}, fmt.Errorf("%w: must be at most %s", ErrInvalidAmount, Money{Cents: MaxAmountCents})
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseMoney accepts "12", "12.3" or "12.345" (rounded to 12.35).
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return MoneyFromDecimal(d)
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 is for presentation only; never sum floats.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// String formats with exactly two decimals, e.g. "105.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsPositive() bool { return m.Cents > 0 }

// InRange reports |m| <= MaxAmountCents.
func (m Money) InRange() bool { return m.Cents >= -MaxAmountCents && m.Cents <= MaxAmountCents }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// GreaterOrEqual reports m >= o.
func (m Money) GreaterOrEqual(o Money) bool { return m.Cents >= o.Cents }
