package strategy

import (
	"math"

	"github.com/montanaflynn/stats"

	"SwingScanner/internal/calculator"
	"SwingScanner/internal/model"
)

// breakoutMatch is what a path hands to the shared risk math.
type breakoutMatch struct {
	reference float64
	stopBase  float64
	zone      *model.Zone
	detail    model.BreakoutDetail
}

// breakoutPath is one entry of the priority table.
type breakoutPath struct {
	name   model.BreakoutPath
	detect func(th Thresholds, in *Input, s *snapshot) (*breakoutMatch, error)
}

// BreakoutClassifier evaluates the breakout paths in priority order.
// The first path whose conditions hold decides the setup.
type BreakoutClassifier struct {
	th    Thresholds
	paths []breakoutPath
}

// NewBreakoutClassifier creates the classifier with the default path order.
func NewBreakoutClassifier(th Thresholds) *BreakoutClassifier {
	return &BreakoutClassifier{
		th: th,
		paths: []breakoutPath{
			{model.PathDryUp, detectDryUp},
			{model.PathConfirmed, detectConfirmed},
			{model.PathTrendline, detectTrendline},
			{model.PathHorizontal, detectHorizontal},
			{model.PathRSLead, detectRSLead},
		},
	}
}

func (c *BreakoutClassifier) Name() string { return "breakout" }

// Classify returns a VCP setup or nil. A path that matches but fails the
// risk guard yields nil without falling through to later paths.
func (c *BreakoutClassifier) Classify(in *Input) (*model.Setup, error) {
	s := c.th.snapshot(in.Bars)
	if s == nil {
		return nil, nil
	}
	for _, p := range c.paths {
		m, err := p.detect(c.th, in, s)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		r, ok := c.th.buildRisk(m.reference, m.stopBase, s.atr)
		if !ok {
			return nil, nil
		}
		setup := newSetup(in, model.SetupVCP, r, s)
		d := m.detail
		d.Path = p.name
		d.VolumeRatio = calculator.RoundTo(s.volumeRatio(), 2)
		d.IsBlueDot = in.RS != nil && in.RS.IsBlueDot
		d.IsRSLead = p.name == model.PathRSLead
		if m.zone != nil {
			d.ResistanceLevel = calculator.RoundPrice(m.zone.Level)
			d.DistancePct = calculator.RoundTo((s.last.Close-m.zone.Upper)/m.zone.Upper*100, 2)
		}
		setup.Breakout = &d
		return setup, nil
	}
	return nil, nil
}

// detectDryUp: coiling under resistance with contracting range, a rounded
// approach and drying volume.
func detectDryUp(th Thresholds, in *Input, s *snapshot) (*breakoutMatch, error) {
	if !s.trendUp() {
		return nil, nil
	}
	price := s.last.Close
	var zone *model.Zone
	best := math.Inf(1)
	for i := range in.Zones {
		z := &in.Zones[i]
		if z.Type != model.ZoneResistance {
			continue
		}
		dist := z.Level - price
		if dist >= 0 && dist <= z.Level*th.DryUpProximity && dist < best {
			best = dist
			zone = z
		}
	}
	if zone == nil || price >= zone.Lower {
		return nil, nil
	}

	tr := calculator.TrueRangeSeries(s.bars)
	if len(tr) < th.TRShortLen+th.TRLongLen+1 {
		return nil, nil
	}
	short, errShort := stats.Mean(tr[len(tr)-th.TRShortLen:])
	long, errLong := stats.Mean(tr[len(tr)-th.TRShortLen-th.TRLongLen : len(tr)-th.TRShortLen])
	if errShort != nil || errLong != nil || long <= 0 || short >= long {
		return nil, nil
	}

	ok, err := isUShape(s.closes, th.UShapeLen, th.UShapeMinCurve)
	if err != nil || !ok {
		if IsDegenerate(err) {
			return nil, nil
		}
		return nil, err
	}

	recentVol, err := calculator.AverageVolumeLast(s.bars, th.DryUpVolumeDays)
	if err != nil || recentVol >= s.volAvg {
		return nil, nil
	}

	return &breakoutMatch{
		reference: zone.Upper,
		stopBase:  math.Min(s.recentLow(th), zone.Lower),
		zone:      zone,
		detail: model.BreakoutDetail{
			TRContractionPct: calculator.RoundTo((1-short/long)*100, 1),
		},
	}, nil
}

// detectConfirmed: clean break of a zone's upper bound on heavy volume with outperformance.
func detectConfirmed(th Thresholds, in *Input, s *snapshot) (*breakoutMatch, error) {
	return aboveZoneBreak(th, in, s, th.ConfirmedMinPct, th.ConfirmedMaxPct, th.ConfirmedVolMult,
		func(out float64) bool { return out > 0 })
}

// detectHorizontal: a looser break with modest volume and non-negative relative strength.
func detectHorizontal(th Thresholds, in *Input, s *snapshot) (*breakoutMatch, error) {
	return aboveZoneBreak(th, in, s, th.HorizontalMinPct, th.HorizontalMaxPct, th.HorizontalVolMult,
		func(out float64) bool { return out >= 0 })
}

func aboveZoneBreak(th Thresholds, in *Input, s *snapshot, minPct, maxPct, volMult float64, rsOK func(float64) bool) (*breakoutMatch, error) {
	out := s.outperformance(in.BenchmarkReturn)
	if math.IsNaN(out) || !rsOK(out) {
		return nil, nil
	}
	if s.last.Volume < volMult*s.volAvg {
		return nil, nil
	}
	price := s.last.Close
	var zone *model.Zone
	best := math.Inf(1)
	for i := range in.Zones {
		z := &in.Zones[i]
		if z.Upper <= 0 {
			continue
		}
		pct := (price - z.Upper) / z.Upper
		if pct >= minPct && pct <= maxPct && pct < best {
			best = pct
			zone = z
		}
	}
	if zone == nil {
		return nil, nil
	}
	return &breakoutMatch{
		reference: s.last.High,
		stopBase:  math.Min(s.recentLow(th), zone.Lower),
		zone:      zone,
	}, nil
}

// detectTrendline: close crosses above a descending least-squares line through swing highs.
func detectTrendline(th Thresholds, in *Input, s *snapshot) (*breakoutMatch, error) {
	if s.last.Volume < th.TrendlineVolMult*s.volAvg {
		return nil, nil
	}
	n := len(s.bars)
	lookback := min(th.TrendlineLookback, n)
	start := n - lookback
	highs := make([]float64, lookback)
	for i := range highs {
		highs[i] = s.bars[start+i].High
	}
	idx := swingHighs(highs, th.SwingOrder)
	if len(idx) < th.MinSwingHighs {
		return nil, nil
	}
	xs := make([]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = float64(j)
		ys[i] = highs[j]
	}
	icpt, slope, err := calculator.FitLine(xs, ys)
	if err != nil {
		if IsDegenerate(err) {
			return nil, nil
		}
		return nil, err
	}
	if slope >= 0 {
		return nil, nil
	}
	today := icpt + slope*float64(lookback-1)
	yesterday := icpt + slope*float64(lookback-2)
	if !(s.last.Close > today && s.closes[n-2] <= yesterday) {
		return nil, nil
	}

	stopBase := s.recentLow(th)
	var support *model.Zone
	for i := range in.Zones {
		z := &in.Zones[i]
		if z.Upper < s.last.Close && (support == nil || z.Upper > support.Upper) {
			support = z
		}
	}
	if support != nil {
		stopBase = math.Min(stopBase, support.Lower)
	}
	return &breakoutMatch{
		reference: s.last.High,
		stopBase:  stopBase,
		detail:    model.BreakoutDetail{ResistanceLevel: calculator.RoundPrice(today)},
	}, nil
}

// detectRSLead: ratio-line leadership just under a zone's upper bound, no volume condition.
func detectRSLead(th Thresholds, in *Input, s *snapshot) (*breakoutMatch, error) {
	if in.RS == nil || !in.RS.IsBlueDot || !s.trendUp() {
		return nil, nil
	}
	price := s.last.Close
	var zone *model.Zone
	for i := range in.Zones {
		z := &in.Zones[i]
		if z.Upper < price || z.Upper <= 0 {
			continue
		}
		if zone == nil || z.Upper < zone.Upper {
			zone = z
		}
	}
	if zone == nil {
		return nil, nil
	}
	gap := (zone.Upper - price) / zone.Upper
	if gap < 0 || gap > th.RSLeadProximity {
		return nil, nil
	}
	return &breakoutMatch{
		reference: zone.Upper,
		stopBase:  math.Min(s.recentLow(th), zone.Lower),
		zone:      zone,
	}, nil
}

// isUShape fits a parabola to the last n z-scored closes and requires an
// upward opening with the vertex inside the window.
func isUShape(closes []float64, n int, minCurve float64) (bool, error) {
	if len(closes) < n || n < 3 {
		return false, nil
	}
	y, err := zscore(closes[len(closes)-n:])
	if err != nil {
		return false, err
	}
	a, b, _, err := calculator.FitParabola(y)
	if err != nil {
		return false, err
	}
	if a <= minCurve {
		return false, nil
	}
	vertex := -b / (2 * a)
	return vertex >= 0 && vertex <= float64(n), nil
}

// swingHighs returns indices strictly higher than order neighbours on both sides.
func swingHighs(highs []float64, order int) []int {
	var idx []int
	for i := order; i < len(highs)-order; i++ {
		peak := true
		for k := 1; k <= order; k++ {
			if highs[i] <= highs[i-k] || highs[i] <= highs[i+k] {
				peak = false
				break
			}
		}
		if peak {
			idx = append(idx, i)
		}
	}
	return idx
}

// zscore normalises with the population standard deviation.
// A flat window is degenerate.
func zscore(v []float64) ([]float64, error) {
	m, err := stats.Mean(v)
	if err != nil {
		return nil, ErrInsufficientData
	}
	sd, err := stats.StandardDeviationPopulation(v)
	if err != nil {
		return nil, ErrInsufficientData
	}
	if sd < 1e-8 {
		return nil, ErrDegenerate
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - m) / sd
	}
	return out, nil
}
