package strategy

import (
	"math"

	"SwingScanner/internal/calculator"
	"SwingScanner/internal/model"
)

// BaseClassifier detects cup-and-handle and flat-base consolidations and
// scores them. Pattern geometry is measured on history up to yesterday;
// today's close is checked against that geometry (flat-base location,
// DRY/BRK signal).
type BaseClassifier struct {
	th Thresholds
}

// NewBaseClassifier creates the classifier.
func NewBaseClassifier(th Thresholds) *BaseClassifier {
	return &BaseClassifier{th: th}
}

func (c *BaseClassifier) Name() string { return "base" }

// cupShape is the geometry of a cup with handle, indices relative to the searched closes.
type cupShape struct {
	left, bottom, rim int
	depth             float64
	handleStart       int
	handleLow         float64
	handlePullback    float64
}

// flatShape is the geometry of a flat base over the trailing length bars.
type flatShape struct {
	length    int
	high, low float64
	depth     float64
	pivot     float64
}

type baseCandidate struct {
	pattern  model.BasePattern
	pivot    float64
	stopBase float64
	depth    float64
	maxDepth float64
	length   int
	relVol   float64
	detail   model.BaseDetail
}

func (c *BaseClassifier) Classify(in *Input) (*model.Setup, error) {
	s := c.th.snapshot(in.Bars)
	if s == nil {
		return nil, nil
	}
	hist := s.bars[:len(s.bars)-1]

	var best *model.Setup
	for _, cand := range []*baseCandidate{c.cupCandidate(hist, s), c.flatCandidate(hist, s)} {
		if cand == nil {
			continue
		}
		if setup := c.build(in, s, cand); setup != nil && preferBase(best, setup) {
			best = setup
		}
	}
	return best, nil
}

// preferBase reports whether next replaces best. Only a strictly higher
// score wins, so the cup (evaluated first) keeps ties.
func preferBase(best, next *model.Setup) bool {
	return best == nil || next.Base.QualityScore > best.Base.QualityScore
}

func (c *BaseClassifier) cupCandidate(hist []model.OHLCV, s *snapshot) *baseCandidate {
	lookback := min(c.th.CupMaxBars, len(hist))
	if lookback < c.th.CupMinBars {
		return nil
	}
	window := hist[len(hist)-lookback:]
	cup, ok := findCup(calculator.Closes(window), c.th)
	if !ok {
		return nil
	}
	handle := window[cup.handleStart:]
	handleVol := 0.0
	handleLow := math.Inf(1)
	for _, b := range handle {
		handleVol += b.Volume
		handleLow = math.Min(handleLow, b.Low)
	}
	handleVol /= float64(len(handle))
	if handleVol >= s.volAvg {
		return nil
	}
	pivot := window[cup.rim].Close
	return &baseCandidate{
		pattern:  model.PatternCupHandle,
		pivot:    pivot,
		stopBase: handleLow,
		depth:    cup.depth,
		maxDepth: c.th.CupMaxDepth,
		length:   len(window) - cup.left,
		relVol:   handleVol / s.volAvg,
		detail: model.BaseDetail{
			HandleLength:      len(handle),
			HandlePullbackPct: calculator.RoundTo(cup.handlePullback*100, 1),
		},
	}
}

func (c *BaseClassifier) flatCandidate(hist []model.OHLCV, s *snapshot) *baseCandidate {
	flat, ok := findFlatBase(hist, c.th)
	if !ok {
		return nil
	}
	pos, err := calculator.RangePosition(s.last.Close, flat.high, flat.low)
	if err != nil || pos < c.th.FlatUpperRange {
		return nil
	}
	shortVol, err := calculator.AverageVolumeLast(hist, c.th.FlatVolumeShort)
	if err != nil {
		return nil
	}
	relVol := shortVol / s.volAvg
	if relVol > c.th.FlatVolumeRatio {
		return nil
	}
	return &baseCandidate{
		pattern:  model.PatternFlatBase,
		pivot:    flat.pivot,
		stopBase: flat.low,
		depth:    flat.depth,
		maxDepth: c.th.FlatMaxDepth,
		length:   flat.length,
		relVol:   relVol,
	}
}

// build applies the signal rule, quality score and risk math to a candidate.
func (c *BaseClassifier) build(in *Input, s *snapshot, cand *baseCandidate) *model.Setup {
	price := s.last.Close
	var signal model.BaseSignal
	switch {
	case price > cand.pivot && s.last.Volume >= c.th.BaseBreakVolMult*s.volAvg:
		signal = model.SignalBrk
	case price <= cand.pivot && (cand.pivot-price)/cand.pivot <= c.th.PivotProximity:
		signal = model.SignalDry
	default:
		return nil
	}

	out := s.outperformance(in.BenchmarkReturn)
	blue := in.RS != nil && in.RS.IsBlueDot
	score := c.quality(out, cand.depth, cand.maxDepth, cand.relVol, blue)
	if score < c.th.BaseMinQuality {
		return nil
	}

	// entry sits just above the pivot for both signals
	r, ok := c.th.buildRisk(cand.pivot, cand.stopBase, s.atr)
	if !ok {
		return nil
	}
	setup := newSetup(in, model.SetupBase, r, s)
	d := cand.detail
	d.Pattern = cand.pattern
	d.Signal = signal
	d.QualityScore = score
	d.DepthPct = calculator.RoundTo(cand.depth*100, 1)
	d.Length = cand.length
	d.VolumeDryUpPct = calculator.RoundTo((1-cand.relVol)*100, 1)
	if !math.IsNaN(out) {
		d.RSOutperformPct = calculator.RoundTo(out*100, 1)
	}
	d.Pivot = calculator.RoundPrice(cand.pivot)
	setup.Base = &d
	return setup
}

// quality sums four 25-point factors, each clamped to [0, 25].
func (c *BaseClassifier) quality(outperf, depth, maxDepth, relVol float64, blueDot bool) float64 {
	rsPts := 0.0
	if !math.IsNaN(outperf) && c.th.QualityRSFull > 0 {
		rsPts = clamp(outperf/c.th.QualityRSFull*25, 0, 25)
	}
	tightPts := 25.0
	if depth > c.th.QualityTightFull {
		span := maxDepth - c.th.QualityTightFull
		tightPts = 0
		if span > 0 {
			tightPts = clamp(25*(maxDepth-depth)/span, 0, 25)
		}
	}
	volPts := clamp(25*(1-relVol), 0, 25)
	bluePts := 0.0
	if blueDot {
		bluePts = 25
	}
	return calculator.RoundTo(rsPts+tightPts+volPts+bluePts, 1)
}

// findCup searches closes for a rounded cup followed by a shallow handle.
func findCup(closes []float64, th Thresholds) (cupShape, bool) {
	n := len(closes)
	if n < th.CupMinBars {
		return cupShape{}, false
	}
	left := argmax(closes[:n*2/3], 0)
	bottom := argmin(closes, left+1)
	if bottom < 0 {
		return cupShape{}, false
	}
	rim := argmax(closes, bottom+1)
	if rim < 0 {
		return cupShape{}, false
	}
	peak := closes[left]
	low := closes[bottom]
	depth := (peak - low) / peak
	if depth < th.CupMinDepth || depth > th.CupMaxDepth {
		return cupShape{}, false
	}
	if math.Abs(peak-closes[rim])/peak > th.CupRimTolerance {
		return cupShape{}, false
	}
	if rim-left < th.CupMinLength {
		return cupShape{}, false
	}
	y, err := zscore(closes[left : rim+1])
	if err != nil {
		return cupShape{}, false
	}
	a, _, _, err := calculator.FitParabola(y)
	if err != nil || a <= 0 {
		return cupShape{}, false
	}

	handle := closes[rim+1:]
	if len(handle) < th.HandleMinBars || len(handle) > th.HandleMaxBars {
		return cupShape{}, false
	}
	handleLow := handle[argmin(handle, 0)]
	pullback := (closes[rim] - handleLow) / closes[rim]
	if pullback < th.HandleMinPullback || pullback > th.HandleMaxPullback {
		return cupShape{}, false
	}
	if handleLow < low+(peak-low)/2 {
		return cupShape{}, false
	}
	return cupShape{
		left:           left,
		bottom:         bottom,
		rim:            rim,
		depth:          depth,
		handleStart:    rim + 1,
		handleLow:      handleLow,
		handlePullback: pullback,
	}, true
}

// findFlatBase picks the longest trailing window whose high-low range is
// within FlatMaxDepth of the high. The bound is inclusive.
func findFlatBase(bars []model.OHLCV, th Thresholds) (flatShape, bool) {
	for length := min(th.FlatMaxBars, len(bars)); length >= th.FlatMinBars; length-- {
		high, low, err := calculator.CalculateRange(bars, length)
		if err != nil || high <= 0 {
			return flatShape{}, false
		}
		depth := (high - low) / high
		if depth > th.FlatMaxDepth {
			continue
		}
		window := calculator.Closes(bars[len(bars)-length:])
		return flatShape{
			length: length,
			high:   high,
			low:    low,
			depth:  depth,
			pivot:  window[argmax(window, 0)],
		}, true
	}
	return flatShape{}, false
}

// argmax returns the first index of the maximum at or after from, -1 if none.
func argmax(v []float64, from int) int {
	best := -1
	for i := from; i < len(v); i++ {
		if best < 0 || v[i] > v[best] {
			best = i
		}
	}
	return best
}

// argmin returns the first index of the minimum at or after from, -1 if none.
func argmin(v []float64, from int) int {
	best := -1
	for i := from; i < len(v); i++ {
		if best < 0 || v[i] < v[best] {
			best = i
		}
	}
	return best
}
