package model

import "time"

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the daily bars of one ticker, ascending by time.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar. Callers must check Len first.
func (s *PriceSeries) Last() OHLCV {
	return s.Bars[len(s.Bars)-1]
}

// RegimeLabel describes the broad market state.
type RegimeLabel string

const (
	RegimeBullish RegimeLabel = "BULLISH"
	RegimeBearish RegimeLabel = "BEARISH"
	RegimeError   RegimeLabel = "ERROR"
)

// MarketRegime is the benchmark trend gate for a scan.
type MarketRegime struct {
	IsBullish      bool        `json:"is_bullish"`
	BenchmarkClose float64     `json:"benchmark_close"`
	BenchmarkEMA   float64     `json:"benchmark_ema"`
	Label          RegimeLabel `json:"label"`
	Detail         string      `json:"detail,omitempty"`
}

// String renders the regime the way reports show it, e.g. "ERROR: no data".
func (r MarketRegime) String() string {
	if r.Detail != "" {
		return string(r.Label) + ": " + r.Detail
	}
	return string(r.Label)
}
