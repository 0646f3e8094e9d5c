// Package money centralises currency and percentage arithmetic so every
// component rounds the same way: two decimal places, half up.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds an amount to two decimal places.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Percent returns pct% of amount, rounded to two decimal places.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(hundred))
}

// Ratio returns part/whole, or zero when whole is zero.
func Ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole)
}

// ClampZero floors an amount at zero.
func ClampZero(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}

// IsPositive reports whether the amount is strictly greater than zero.
func IsPositive(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}
