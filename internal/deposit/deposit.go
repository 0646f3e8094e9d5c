// Package deposit computes and validates partial-payment amounts for
// pre-orders. Pure computation, no persistence.
package deposit

import (
	"github.com/shopspring/decimal"

	"github.com/carlostcba/GustadosPOS-sub000/internal/money"
	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

var (
	minimumRate  = decimal.NewFromFloat(0.10)
	minimumFloor = decimal.NewFromInt(10)

	lowCutoff  = decimal.NewFromInt(30)
	highCutoff = decimal.NewFromInt(70)

	presetRates = []decimal.Decimal{
		decimal.NewFromInt(30),
		decimal.NewFromInt(50),
		decimal.NewFromInt(70),
		decimal.NewFromInt(100),
	}
)

// Classification is an advisory label for the deposit ratio. None of the
// labels block the operation; only the hard bounds in Build do.
type Classification string

const (
	BelowRecommended Classification = "below_recommended"
	Recommended      Classification = "recommended"
	High             Classification = "high"
)

// Plan is a validated deposit/remaining split for a pre-order total.
type Plan struct {
	Total          decimal.Decimal
	Deposit        decimal.Decimal
	Remaining      decimal.Decimal
	Minimum        decimal.Decimal
	Percentage     decimal.Decimal
	Classification Classification
}

// Minimum is the smallest accepted deposit: 10% of the total, floored at 10.
func Minimum(total decimal.Decimal) decimal.Decimal {
	return money.Round2(money.Max(total.Mul(minimumRate), minimumFloor))
}

// Build validates amount against total and returns the resulting plan.
// Amounts above the total or below the minimum are hard failures; the ratio
// classification is advisory only.
func Build(total, amount decimal.Decimal) (Plan, error) {
	if !money.IsPositive(total) {
		return Plan{}, errorbank.Validation("order total must be greater than zero")
	}
	if !money.IsPositive(amount) {
		return Plan{}, errorbank.Validation("deposit amount must be greater than zero")
	}
	if amount.GreaterThan(total) {
		return Plan{}, errorbank.Validation("deposit cannot exceed the order total",
			errorbank.WithDetail("total", total.StringFixed(2)))
	}

	min := Minimum(total)
	if amount.LessThan(min) {
		return Plan{}, errorbank.Validation("deposit is below the required minimum",
			errorbank.WithDetail("minimum", min.StringFixed(2)))
	}

	pct := money.Round2(amount.Mul(decimal.NewFromInt(100)).Div(total))
	plan := Plan{
		Total:          total,
		Deposit:        money.Round2(amount),
		Remaining:      money.Round2(total.Sub(amount)),
		Minimum:        min,
		Percentage:     pct,
		Classification: classify(pct),
	}
	return plan, nil
}

func classify(pct decimal.Decimal) Classification {
	switch {
	case pct.LessThan(lowCutoff):
		return BelowRecommended
	case pct.GreaterThan(highCutoff):
		return High
	default:
		return Recommended
	}
}

// Presets returns the shortcut deposit amounts at 30/50/70/100% of total.
func Presets(total decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(presetRates))
	for _, rate := range presetRates {
		out = append(out, money.Percent(total, rate))
	}
	return out
}
