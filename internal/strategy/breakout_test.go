package strategy

import (
	"math"
	"testing"

	"SwingScanner/internal/model"
)

var breakoutZone = model.Zone{Type: model.ZoneSupport, Level: 99, Upper: 100, Lower: 98}

// breakoutBars is a flat run at 97 followed by today's bar.
func breakoutBars(close, high, low, volume float64) []model.OHLCV {
	bars := barsFromCloses(constCloses(80, 97), 0.005, 1e6)
	last := &bars[len(bars)-1]
	last.Close, last.High, last.Low, last.Open, last.Volume = close, high, low, close, volume
	return bars
}

func TestBreakout_ConfirmedWinsAtExactVolumeThreshold(t *testing.T) {
	c := NewBreakoutClassifier(DefaultThresholds())
	in := &Input{
		Ticker:          "ACME",
		Bars:            breakoutBars(101, 101.5, 100.5, 1.5e6),
		Zones:           []model.Zone{breakoutZone},
		BenchmarkReturn: 0,
	}
	setup, err := c.Classify(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup == nil {
		t.Fatal("expected a setup")
	}
	if setup.Breakout.Path != model.PathConfirmed {
		t.Errorf("expected CONFIRMED, got %s", setup.Breakout.Path)
	}
	if setup.SetupType != model.SetupVCP {
		t.Errorf("expected VCP, got %s", setup.SetupType)
	}
	if setup.Entry != 101.6 {
		t.Errorf("entry = %.2f, want 101.60", setup.Entry)
	}
	if setup.Breakout.VolumeRatio != 1.5 {
		t.Errorf("volume ratio = %.2f, want 1.5", setup.Breakout.VolumeRatio)
	}
	assertSetupInvariants(t, setup)
}

func TestBreakout_HorizontalBelowConfirmedVolume(t *testing.T) {
	c := NewBreakoutClassifier(DefaultThresholds())
	in := &Input{
		Ticker: "ACME",
		Bars:   breakoutBars(101, 101.5, 100.5, 1.49e6),
		Zones:  []model.Zone{breakoutZone},
	}
	setup, err := c.Classify(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup == nil || setup.Breakout.Path != model.PathHorizontal {
		t.Fatalf("expected HORIZONTAL, got %+v", setup)
	}
	assertSetupInvariants(t, setup)
}

func TestBreakout_LaggingBenchmarkRejected(t *testing.T) {
	c := NewBreakoutClassifier(DefaultThresholds())
	in := &Input{
		Ticker:          "ACME",
		Bars:            breakoutBars(101, 101.5, 100.5, 1.5e6),
		Zones:           []model.Zone{breakoutZone},
		BenchmarkReturn: 0.50,
	}
	setup, err := c.Classify(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup != nil {
		t.Errorf("expected no setup when lagging the benchmark, got %s", setup.Breakout.Path)
	}
}

func TestBreakout_GapAboveUpperIsNotCovered(t *testing.T) {
	c := NewBreakoutClassifier(DefaultThresholds())
	in := &Input{
		Ticker: "ACME",
		Bars:   breakoutBars(100.3, 100.6, 99.9, 1e6),
		Zones:  []model.Zone{breakoutZone},
		RS:     &model.RSContext{RatioToday: 1, Ratio52wHigh: 1, IsBlueDot: true},
	}
	setup, err := c.Classify(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup != nil {
		t.Errorf("expected no setup 0.3%% above the zone, got %s", setup.Breakout.Path)
	}
}

func risingBars(n int, start, step float64) []model.OHLCV {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return barsFromCloses(closes, 0.005, 1e6)
}

func TestBreakout_RSLead(t *testing.T) {
	c := NewBreakoutClassifier(DefaultThresholds())
	zone := model.Zone{Type: model.ZoneResistance, Level: 99, Upper: 100, Lower: 97.5}
	bars := risingBars(80, 90, 0.1)

	in := &Input{Ticker: "LEAD", Bars: bars, Zones: []model.Zone{zone}, RS: &model.RSContext{IsBlueDot: true}}
	setup, err := c.Classify(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup == nil || setup.Breakout.Path != model.PathRSLead {
		t.Fatalf("expected RS_LEAD, got %+v", setup)
	}
	if !setup.Breakout.IsRSLead || !setup.Breakout.IsBlueDot {
		t.Errorf("expected RS lead flags, got %+v", setup.Breakout)
	}
	if setup.Entry != 100.1 {
		t.Errorf("entry = %.2f, want 100.10", setup.Entry)
	}
	assertSetupInvariants(t, setup)

	in.RS = &model.RSContext{IsBlueDot: false}
	if setup, _ := c.Classify(in); setup != nil {
		t.Errorf("expected nil without blue dot, got %s", setup.Breakout.Path)
	}
	in.RS = nil
	if setup, _ := c.Classify(in); setup != nil {
		t.Errorf("expected nil without RS context, got %s", setup.Breakout.Path)
	}
}

func TestBreakout_DryUp(t *testing.T) {
	closes := make([]float64, 0, 80)
	for i := 0; i < 65; i++ {
		closes = append(closes, 80+0.2*float64(i))
	}
	top := closes[len(closes)-1]
	for i := 0; i < 15; i++ {
		k := float64(i - 7)
		closes = append(closes, top+0.04*k*k-1.96)
	}
	bars := barsFromCloses(closes, 0.02, 1e6)
	for i := len(bars) - 5; i < len(bars); i++ {
		bars[i].High = bars[i].Close * 1.002
		bars[i].Low = bars[i].Close * 0.998
	}
	for i := len(bars) - 3; i < len(bars); i++ {
		bars[i].Volume = 0.5e6
	}
	zone := model.Zone{Type: model.ZoneResistance, Level: 95, Upper: 96, Lower: 94}

	c := NewBreakoutClassifier(DefaultThresholds())
	setup, err := c.Classify(&Input{Ticker: "COIL", Bars: bars, Zones: []model.Zone{zone}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup == nil || setup.Breakout.Path != model.PathDryUp {
		t.Fatalf("expected DRY_UP, got %+v", setup)
	}
	if setup.Breakout.TRContractionPct <= 0 {
		t.Errorf("expected positive TR contraction, got %.1f", setup.Breakout.TRContractionPct)
	}
	if setup.Entry != 96.1 {
		t.Errorf("entry = %.2f, want 96.10", setup.Entry)
	}
	assertSetupInvariants(t, setup)
}

func TestBreakout_Trendline(t *testing.T) {
	closes := make([]float64, 80)
	for j := range closes {
		closes[j] = 100 - 0.15*float64(j)
		if j%10 == 5 {
			closes[j] += 1.5
		}
	}
	bars := barsFromCloses(closes, 0.005, 1e6)
	last := &bars[len(bars)-1]
	last.Open, last.High, last.Low, last.Close, last.Volume = 91, 91.5, 90, 91, 1.3e6

	c := NewBreakoutClassifier(DefaultThresholds())
	setup, err := c.Classify(&Input{Ticker: "LINE", Bars: bars})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup == nil || setup.Breakout.Path != model.PathTrendline {
		t.Fatalf("expected TRENDLINE, got %+v", setup)
	}
	if setup.Entry != 91.59 {
		t.Errorf("entry = %.2f, want 91.59", setup.Entry)
	}
	assertSetupInvariants(t, setup)
}

func TestBreakout_RiskGuardRejects(t *testing.T) {
	th := DefaultThresholds()
	th.ATRStopMult = 20
	c := NewBreakoutClassifier(th)
	in := &Input{
		Ticker: "WIDE",
		Bars:   breakoutBars(101, 101.5, 100.5, 1.5e6),
		Zones:  []model.Zone{breakoutZone},
	}
	if setup, _ := c.Classify(in); setup != nil {
		t.Errorf("expected risk guard to reject, got %+v", setup)
	}
}

func TestBreakout_ShortSeries(t *testing.T) {
	c := NewBreakoutClassifier(DefaultThresholds())
	setup, err := c.Classify(&Input{Ticker: "NEW", Bars: risingBars(40, 10, 0.1)})
	if err != nil || setup != nil {
		t.Errorf("expected nil, nil for short series, got %+v, %v", setup, err)
	}
}

func TestSwingHighs(t *testing.T) {
	highs := []float64{1, 2, 3, 9, 3, 2, 1, 2, 3, 4, 8, 4, 3, 2}
	got := swingHighs(highs, 3)
	if len(got) != 2 || got[0] != 3 || got[1] != 10 {
		t.Errorf("got %v, want [3 10]", got)
	}
}

func TestZScore(t *testing.T) {
	y, err := zscore([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// population sd of 1..5 is sqrt(2)
	if want := -2 / math.Sqrt2; math.Abs(y[0]-want) > 1e-12 || y[2] != 0 {
		t.Errorf("zscore = %v, want first %.6f and middle 0", y, want)
	}
	if _, err := zscore([]float64{7, 7, 7, 7}); !IsDegenerate(err) {
		t.Errorf("expected ErrDegenerate for a flat window, got %v", err)
	}
}

func TestIsUShape_FlatWindowIsDegenerate(t *testing.T) {
	ok, err := isUShape(constCloses(20, 50), 15, 0.005)
	if ok || !IsDegenerate(err) {
		t.Errorf("got ok=%v err=%v, want degenerate", ok, err)
	}
}
