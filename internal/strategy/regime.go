package strategy

import (
	"fmt"

	"SwingScanner/internal/calculator"
	"SwingScanner/internal/model"
)

// DetectRegime compares the benchmark's last close with its RegimeEMA-period EMA.
// Insufficient data yields an ERROR regime, which gates like a bearish one.
func DetectRegime(benchmark []model.OHLCV, th Thresholds) model.MarketRegime {
	if len(benchmark) < th.RegimeEMA {
		return model.MarketRegime{
			Label:  model.RegimeError,
			Detail: fmt.Sprintf("need %d benchmark bars, have %d", th.RegimeEMA, len(benchmark)),
		}
	}
	closes := calculator.Closes(benchmark)
	ema := calculator.Last(calculator.EMASeries(closes, th.RegimeEMA))
	last := closes[len(closes)-1]
	if calculator.AnyNaN(ema, last) {
		return model.MarketRegime{Label: model.RegimeError, Detail: "benchmark EMA undefined"}
	}
	r := model.MarketRegime{
		IsBullish:      last > ema,
		BenchmarkClose: calculator.RoundPrice(last),
		BenchmarkEMA:   calculator.RoundPrice(ema),
		Label:          model.RegimeBearish,
	}
	if r.IsBullish {
		r.Label = model.RegimeBullish
	}
	return r
}

// RegimeFromError builds the ERROR regime for a failed benchmark fetch.
func RegimeFromError(err error) model.MarketRegime {
	return model.MarketRegime{Label: model.RegimeError, Detail: err.Error()}
}
