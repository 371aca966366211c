package strategy

import (
	"math"

	"SwingScanner/internal/calculator"
	"SwingScanner/internal/model"
)

// Input is everything a classifier may look at for one ticker.
type Input struct {
	Ticker string
	Bars   []model.OHLCV
	Zones  []model.Zone
	// BenchmarkReturn is the benchmark's ReturnLookback-bar return, NaN when unknown.
	BenchmarkReturn float64
	// RS is nil when the ratio line is unavailable or was not computed.
	RS *model.RSContext
}

// Classifier inspects one ticker and returns a setup or nil.
// Implementations are pure and safe for concurrent use.
type Classifier interface {
	Name() string
	Classify(in *Input) (*model.Setup, error)
}

// snapshot holds the latest indicator values shared by the classifiers.
type snapshot struct {
	bars      []model.OHLCV
	closes    []float64
	last      model.OHLCV
	ema8      float64
	ema20     float64
	sma50     float64
	atr       float64
	volAvg    float64
	tickerRet float64
}

// snapshot returns nil when bars are too short or any indicator is undefined.
func (th Thresholds) snapshot(bars []model.OHLCV) *snapshot {
	need := max(th.MinBars, th.SMALong, th.VolumeAvg+1, th.ATRPeriod, th.EMAMedium)
	if len(bars) < need {
		return nil
	}
	closes := calculator.Closes(bars)
	s := &snapshot{
		bars:   bars,
		closes: closes,
		last:   bars[len(bars)-1],
		ema8:   calculator.Last(calculator.EMASeries(closes, th.EMAShort)),
		ema20:  calculator.Last(calculator.EMASeries(closes, th.EMAMedium)),
		sma50:  calculator.Last(calculator.SMASeries(closes, th.SMALong)),
	}
	var err error
	if s.atr, err = calculator.CalculateATR(bars, th.ATRPeriod); err != nil {
		return nil
	}
	if s.volAvg, err = calculator.AverageVolumeBefore(bars, th.VolumeAvg); err != nil || s.volAvg <= 0 {
		return nil
	}
	if calculator.AnyNaN(s.last.Close, s.last.High, s.last.Low, s.ema8, s.ema20, s.sma50, s.atr) {
		return nil
	}
	s.tickerRet = math.NaN()
	if r, err := calculator.PeriodReturn(closes, th.ReturnLookback); err == nil {
		s.tickerRet = r
	}
	return s
}

// trendUp is the shared trend filter: short EMA above medium EMA, close above long SMA.
func (s *snapshot) trendUp() bool {
	return s.ema8 > s.ema20 && s.last.Close > s.sma50
}

func (s *snapshot) volumeRatio() float64 {
	return s.last.Volume / s.volAvg
}

// outperformance is ticker return minus benchmark return, NaN when either is unknown.
func (s *snapshot) outperformance(benchRet float64) float64 {
	return s.tickerRet - benchRet
}

func (s *snapshot) recentLow(th Thresholds) float64 {
	low, err := calculator.RecentLow(s.bars, th.RecentLowLen)
	if err != nil {
		return math.NaN()
	}
	return low
}

func newSetup(in *Input, kind model.SetupType, r riskLevels, s *snapshot) *model.Setup {
	return &model.Setup{
		Ticker:     in.Ticker,
		SetupType:  kind,
		Entry:      r.entry,
		StopLoss:   r.stop,
		TakeProfit: r.target,
		RiskReward: r.rr,
		SetupDate:  s.last.Time,
	}
}
