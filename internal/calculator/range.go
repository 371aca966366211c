package calculator

import (
	"errors"
	"math"

	"SwingScanner/internal/model"
)

// CalculateRange scans the most recent lookback bars and returns the highest high and lowest low.
func CalculateRange(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(bars)
	start := n - lookback
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// RecentLow returns the lowest low of the last n bars.
func RecentLow(bars []model.OHLCV, n int) (float64, error) {
	_, low, err := CalculateRange(bars, n)
	return low, err
}

// RangePosition returns where the current price sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// PeriodReturn is the fractional change of the last close versus the close lookback bars earlier.
func PeriodReturn(closes []float64, lookback int) (float64, error) {
	n := len(closes)
	if lookback <= 0 || n <= lookback {
		return 0, ErrInsufficientData
	}
	base := closes[n-1-lookback]
	if base <= 0 {
		return 0, ErrDegenerate
	}
	return closes[n-1]/base - 1, nil
}
