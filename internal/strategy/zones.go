package strategy

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"SwingScanner/internal/model"
)

// ZoneExtractor finds support/resistance bands as peaks of a Gaussian
// kernel density estimate over closing prices.
type ZoneExtractor struct {
	th Thresholds
}

// NewZoneExtractor creates an extractor with the given thresholds.
func NewZoneExtractor(th Thresholds) *ZoneExtractor {
	return &ZoneExtractor{th: th}
}

type densityPeak struct {
	level, upper, lower float64
	height, prominence  float64
}

// Extract returns at most ZoneMaxCount zones ordered by level.
func (e *ZoneExtractor) Extract(bars []model.OHLCV) ([]model.Zone, error) {
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 && !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0) {
			closes = append(closes, b.Close)
		}
	}
	if len(closes) < e.th.ZoneMinBars {
		return nil, ErrInsufficientData
	}
	if countDistinct(closes) < e.th.ZoneMinDistinct {
		return nil, fmt.Errorf("%w: fewer than %d distinct closes", ErrDegenerate, e.th.ZoneMinDistinct)
	}

	grid, density, err := e.density(closes)
	if err != nil {
		return nil, err
	}
	peaks := findPeaks(grid, density, e.th.ZoneMinProminence)
	peaks = mergePeaks(peaks)

	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].prominence > peaks[j].prominence })
	if len(peaks) > e.th.ZoneMaxCount {
		peaks = peaks[:e.th.ZoneMaxCount]
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].level < peaks[j].level })

	last := closes[len(closes)-1]
	zones := make([]model.Zone, 0, len(peaks))
	for _, p := range peaks {
		z := model.Zone{Type: model.ZoneSupport, Level: p.level, Upper: p.upper, Lower: p.lower}
		if p.level > last {
			z.Type = model.ZoneResistance
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// Bandwidth returns the kernel bandwidth for the given closes.
// The Scott factor is scaled by ZoneReferenceCV/cv, clamped, so the
// absolute width tracks price level and stays monotone in volatility.
func (e *ZoneExtractor) Bandwidth(closes []float64) (float64, error) {
	mean, err := stats.Mean(closes)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}
	sd, err := stats.StandardDeviationSample(closes)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}
	if sd <= 0 || mean <= 0 || math.IsNaN(sd) {
		return 0, fmt.Errorf("%w: zero variance", ErrDegenerate)
	}
	cv := sd / mean
	scale := clamp(e.th.ZoneReferenceCV/cv, e.th.ZoneBandwidthMin, e.th.ZoneBandwidthMax)
	scott := math.Pow(float64(len(closes)), -0.2)
	return sd * scott * scale, nil
}

func (e *ZoneExtractor) density(closes []float64) (grid, density []float64, err error) {
	h, err := e.Bandwidth(closes)
	if err != nil {
		return nil, nil, err
	}
	lo, _ := stats.Min(closes)
	hi, _ := stats.Max(closes)
	lo *= 0.98
	hi *= 1.02

	g := e.th.ZoneGridPoints
	if g < 3 {
		g = 3
	}
	grid = make([]float64, g)
	density = make([]float64, g)
	step := (hi - lo) / float64(g-1)
	norm := 1 / (float64(len(closes)) * h * math.Sqrt(2*math.Pi))
	for i := range grid {
		x := lo + float64(i)*step
		grid[i] = x
		sum := 0.0
		for _, c := range closes {
			u := (x - c) / h
			sum += math.Exp(-0.5 * u * u)
		}
		d := sum * norm
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, nil, fmt.Errorf("%w: density not finite", ErrDegenerate)
		}
		density[i] = d
	}
	return grid, density, nil
}

// findPeaks returns local maxima whose topographic prominence is at least
// minProminence of the highest density value, with half-prominence bounds.
func findPeaks(grid, density []float64, minProminence float64) []densityPeak {
	maxD, _ := stats.Max(density)
	if maxD <= 0 {
		return nil
	}
	n := len(density)
	var peaks []densityPeak
	for i := 1; i < n-1; i++ {
		if !(density[i] > density[i-1] && density[i] >= density[i+1]) {
			continue
		}
		prom := prominence(density, i)
		if prom < minProminence*maxD {
			continue
		}
		ref := density[i] - prom/2
		left := i
		for left > 0 && density[left] > ref {
			left--
		}
		right := i
		for right < n-1 && density[right] > ref {
			right++
		}
		peaks = append(peaks, densityPeak{
			level:      grid[i],
			lower:      interpolate(grid, density, left, left+1, ref),
			upper:      interpolate(grid, density, right, right-1, ref),
			height:     density[i],
			prominence: prom,
		})
	}
	return peaks
}

// prominence is the height of a peak above the higher of the two lowest
// points separating it from taller terrain on either side.
func prominence(d []float64, i int) float64 {
	leftMin := d[i]
	for j := i - 1; j >= 0; j-- {
		if d[j] > d[i] {
			break
		}
		if d[j] < leftMin {
			leftMin = d[j]
		}
	}
	rightMin := d[i]
	for j := i + 1; j < len(d); j++ {
		if d[j] > d[i] {
			break
		}
		if d[j] < rightMin {
			rightMin = d[j]
		}
	}
	return d[i] - math.Max(leftMin, rightMin)
}

// interpolate finds the grid position between out and in where density crosses ref.
func interpolate(grid, d []float64, out, in int, ref float64) float64 {
	if out == in || d[out] > ref || d[in] == d[out] {
		return grid[out]
	}
	t := (ref - d[out]) / (d[in] - d[out])
	return grid[out] + t*(grid[in]-grid[out])
}

// mergePeaks collapses overlapping bands. The denser peak keeps its level.
func mergePeaks(peaks []densityPeak) []densityPeak {
	if len(peaks) < 2 {
		return peaks
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].lower < peaks[j].lower })
	merged := []densityPeak{peaks[0]}
	for _, p := range peaks[1:] {
		cur := &merged[len(merged)-1]
		if p.lower > cur.upper {
			merged = append(merged, p)
			continue
		}
		if p.height > cur.height {
			cur.level = p.level
			cur.height = p.height
		}
		cur.prominence = math.Max(cur.prominence, p.prominence)
		cur.lower = math.Min(cur.lower, p.lower)
		cur.upper = math.Max(cur.upper, p.upper)
	}
	return merged
}

func countDistinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
