package calculator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"SwingScanner/internal/model"
)

// CCISeries computes the Commodity Channel Index over typical price
// (Lambert constant 0.015). Windows with a flat typical price yield NaN.
func CCISeries(bars []model.OHLCV, period int) []float64 {
	n := len(bars)
	if period < 2 || n < period {
		return nanSlice(n)
	}
	highs, lows, closes := hlc(bars)
	out := talib.Cci(highs, lows, closes, period)

	tp := make([]float64, n)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	hi, lo := talib.Max(tp, period), talib.Min(tp, period)
	for i := range out {
		if i < period-1 || hi[i] == lo[i] {
			out[i] = math.NaN()
		}
	}
	return out
}
