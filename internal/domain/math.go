package domain

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FromFinite converts a float to a decimal. Returns false for NaN and ±Inf.
func FromFinite(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// SafeDiv divides a by b. Returns false on division by zero.
func SafeDiv(a, b decimal.Decimal) (decimal.Decimal, bool) {
	if b.IsZero() {
		return decimal.Zero, false
	}
	return a.Div(b), true
}

// Percent returns part/whole*100, or false when whole is zero.
func Percent(part, whole decimal.Decimal) (decimal.Decimal, bool) {
	q, ok := SafeDiv(part, whole)
	if !ok {
		return decimal.Zero, false
	}
	return q.Mul(hundred), true
}

// PercentOf returns value*pct/100.
func PercentOf(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(hundred)
}

// ScaleRaw converts an on-chain integer amount to token units using decimals.
// A nil amount is zero.
func ScaleRaw(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// AddOptional sums two optional values. Nil means unknown; the sum is unknown
// only when both operands are.
func AddOptional(a, b *decimal.Decimal) *decimal.Decimal {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	default:
		v := a.Add(*b)
		return &v
	}
}
