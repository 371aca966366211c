package calculator

import (
	"errors"
	"math"

	talib "github.com/markcheno/go-talib"

	"SwingScanner/internal/model"
)

var (
	// ErrInsufficientData is returned when a series is shorter than the indicator needs.
	ErrInsufficientData = errors.New("not enough data")
	// ErrDegenerate is returned for singular or constant inputs.
	ErrDegenerate = errors.New("degenerate input")
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	return Last(talib.Sma(prices[len(prices)-period:], period)), nil
}

// SMASeries returns the rolling mean of values. Entries before period-1 are NaN.
func SMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nanSlice(len(values))
	}
	out := talib.Sma(values, period)
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// EMASeries returns the exponential moving average with alpha = 2/(period+1),
// seeded with the first value like pandas ewm(adjust=False). talib.Ema seeds
// with the SMA of the first period values instead. Entries before period-1 are NaN.
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 {
		return nanSlice(len(values))
	}
	return ewm(values, 2/float64(period+1), period)
}

// ewm is a recursive exponential mean without bias adjustment.
func ewm(values []float64, alpha float64, minPeriods int) []float64 {
	out := nanSlice(len(values))
	if len(values) == 0 {
		return out
	}
	prev := values[0]
	for i, v := range values {
		if i > 0 {
			prev = alpha*v + (1-alpha)*prev
		}
		if i >= minPeriods-1 {
			out[i] = prev
		}
	}
	return out
}

// AverageVolumeBefore returns the mean volume of the period bars preceding the last bar.
// Today's volume is excluded so it can be compared against the baseline.
func AverageVolumeBefore(bars []model.OHLCV, period int) (float64, error) {
	if len(bars) < period+1 {
		return 0, ErrInsufficientData
	}
	vols := extractVolumes(bars[:len(bars)-1])
	return CalculateSMA(vols, period)
}

// AverageVolumeLast returns the mean volume of the last n bars.
func AverageVolumeLast(bars []model.OHLCV, n int) (float64, error) {
	return CalculateSMA(extractVolumes(bars), n)
}

// Last returns the final element of a series, NaN when empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// AnyNaN reports whether any of the values is NaN or infinite.
func AnyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// Closes extracts close prices.
func Closes(bars []model.OHLCV) []float64 { return extractCloses(bars) }

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// hlc splits bars into the high, low and close slices talib expects.
func hlc(bars []model.OHLCV) (highs, lows, closes []float64) {
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	closes = make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}
	return highs, lows, closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
