package invoice

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v half away from zero to two decimal places. It is the only
// rounding rule used for money. Non-finite input yields 0.
func Round2(v float64) float64 {
	return toMoney(toDecimal(v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// toDecimal converts through the shortest decimal representation of v, so
// 1.005 is treated as 1.005 and not as its binary approximation.
func toDecimal(v float64) decimal.Decimal {
	if !isFinite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// toMoney applies the rounding rule and converts back to float64.
func toMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// hasSubCentPrecision reports whether v carries more than two decimal places.
func hasSubCentPrecision(v float64) bool {
	d := toDecimal(v)
	return !d.Equal(d.Round(2))
}

// moneyEqual compares two money values at cent precision.
func moneyEqual(a, b float64) bool {
	return toDecimal(a).Round(2).Equal(toDecimal(b).Round(2))
}
