package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundPrice rounds to cents using decimal half-up rounding.
func RoundPrice(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds to the given number of decimal places. NaN and Inf pass through.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
