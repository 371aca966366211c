package strategy

import (
	"math"

	"github.com/montanaflynn/stats"

	"SwingScanner/internal/model"
)

// ComputeRS builds the ticker/benchmark ratio line over the most recent
// RSWindow aligned dates. It returns nil when fewer aligned dates exist.
func ComputeRS(ticker, benchmark []model.OHLCV, th Thresholds) *model.RSContext {
	ratios := alignedRatios(ticker, benchmark)
	if len(ratios) < th.RSWindow || th.RSWindow <= 0 {
		return nil
	}
	window := ratios[len(ratios)-th.RSWindow:]
	high, err := stats.Max(window)
	if err != nil {
		return nil
	}
	today := window[len(window)-1]
	return &model.RSContext{
		RatioToday:   today,
		Ratio52wHigh: high,
		IsBlueDot:    today >= high*(1-th.RSBlueDotTolerance),
	}
}

// alignedRatios divides ticker closes by benchmark closes on shared dates.
// Dates where either close is missing or invalid are dropped.
func alignedRatios(ticker, benchmark []model.OHLCV) []float64 {
	bench := make(map[string]float64, len(benchmark))
	for _, b := range benchmark {
		if validPrice(b.Close) {
			bench[dateKey(b)] = b.Close
		}
	}
	ratios := make([]float64, 0, len(ticker))
	for _, b := range ticker {
		if !validPrice(b.Close) {
			continue
		}
		bc, ok := bench[dateKey(b)]
		if !ok {
			continue
		}
		ratios = append(ratios, b.Close/bc)
	}
	return ratios
}

func dateKey(b model.OHLCV) string {
	return b.Time.Format("2006-01-02")
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
