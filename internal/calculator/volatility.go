package calculator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"SwingScanner/internal/model"
)

// TrueRangeSeries returns the raw true range per bar. The first bar has no
// previous close and uses high-low.
func TrueRangeSeries(bars []model.OHLCV) []float64 {
	if len(bars) == 0 {
		return nil
	}
	highs, lows, closes := hlc(bars)
	out := talib.TRange(highs, lows, closes)
	out[0] = highs[0] - lows[0]
	return out
}

// ATRSeries returns Wilder's average true range (alpha 1/period), seeded
// with the first true range rather than talib's SMA seed.
func ATRSeries(bars []model.OHLCV, period int) []float64 {
	if period <= 0 {
		return nanSlice(len(bars))
	}
	return ewm(TrueRangeSeries(bars), 1/float64(period), period)
}

// CalculateATR returns the latest ATR value.
func CalculateATR(bars []model.OHLCV, period int) (float64, error) {
	if len(bars) < period {
		return 0, ErrInsufficientData
	}
	v := Last(ATRSeries(bars, period))
	if math.IsNaN(v) {
		return 0, ErrInsufficientData
	}
	return v, nil
}
