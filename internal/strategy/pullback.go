package strategy

import (
	"math"

	"SwingScanner/internal/calculator"
	"SwingScanner/internal/model"
)

// PullbackClassifier looks for an orderly dip into the short and medium
// EMAs with a CCI upturn. The relaxed variant runs only when strict fails.
type PullbackClassifier struct {
	th Thresholds
}

// NewPullbackClassifier creates the classifier.
func NewPullbackClassifier(th Thresholds) *PullbackClassifier {
	return &PullbackClassifier{th: th}
}

func (c *PullbackClassifier) Name() string { return "pullback" }

func (c *PullbackClassifier) Classify(in *Input) (*model.Setup, error) {
	s := c.th.snapshot(in.Bars)
	if s == nil || !s.trendUp() {
		return nil, nil
	}
	cci := calculator.CCISeries(s.bars, c.th.CCIPeriod)
	n := len(cci)
	cciToday, cciPrev := cci[n-1], cci[n-2]
	if calculator.AnyNaN(cciToday, cciPrev) || !(cciPrev < 0 && cciToday > cciPrev) {
		return nil, nil
	}

	price := s.last.Close
	d8 := math.Abs(price-s.ema8) / s.ema8
	d20 := math.Abs(price-s.ema20) / s.ema20

	relaxed := false
	switch {
	case d8 <= c.th.StrictEMABuffer && d20 <= c.th.StrictEMABuffer && s.last.Volume < s.volAvg:
	case d8 <= c.th.RelaxedEMABuffer || d20 <= c.th.RelaxedEMABuffer:
		recentVol, err := calculator.AverageVolumeLast(s.bars, c.th.RelaxedVolumeDays)
		if err != nil || recentVol > s.volAvg {
			return nil, nil
		}
		relaxed = true
	default:
		return nil, nil
	}

	stopBase := s.recentLow(c.th)
	var support *model.Zone
	for i := range in.Zones {
		z := &in.Zones[i]
		if z.Type == model.ZoneSupport && z.Contains(stopBase) {
			support = z
			break
		}
	}
	if support != nil {
		stopBase = support.Lower
	}

	r, ok := c.th.buildRisk(s.last.High, stopBase, s.atr)
	if !ok {
		return nil, nil
	}
	setup := newSetup(in, model.SetupPullback, r, s)
	setup.Pullback = &model.PullbackDetail{
		IsRelaxed:    relaxed,
		CCIToday:     calculator.RoundTo(cciToday, 1),
		CCIYesterday: calculator.RoundTo(cciPrev, 1),
		EMA8:         calculator.RoundPrice(s.ema8),
		EMA20:        calculator.RoundPrice(s.ema20),
	}
	if support != nil {
		setup.Pullback.SupportLevel = calculator.RoundPrice(support.Level)
	}
	return setup, nil
}
