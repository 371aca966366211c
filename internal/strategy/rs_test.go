package strategy

import (
	"math"
	"testing"

	"SwingScanner/internal/model"
)

// ratioSeries returns ticker and benchmark bars whose close ratio equals ratios.
func ratioSeries(ratios []float64) (ticker, bench []model.OHLCV) {
	bench = barsFromCloses(constCloses(len(ratios), 100), 0.01, 1e6)
	closes := make([]float64, len(ratios))
	for i, r := range ratios {
		closes[i] = r * 100
	}
	return barsFromCloses(closes, 0.01, 1e6), bench
}

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 + float64(i)*0.001
	}
	return out
}

func TestComputeRS_OverlapBoundary(t *testing.T) {
	th := DefaultThresholds()

	tk, bm := ratioSeries(rising(251))
	if rs := ComputeRS(tk, bm, th); rs != nil {
		t.Errorf("251 aligned points: expected nil, got %+v", rs)
	}
	tk, bm = ratioSeries(rising(252))
	if rs := ComputeRS(tk, bm, th); rs == nil {
		t.Error("252 aligned points: expected context, got nil")
	}
}

func TestComputeRS_NaNRowsExcluded(t *testing.T) {
	th := DefaultThresholds()
	tk, bm := ratioSeries(rising(253))
	tk[100].Close = math.NaN()
	rs := ComputeRS(tk, bm, th)
	if rs == nil {
		t.Fatal("expected context after dropping one NaN row")
	}
	if math.IsNaN(rs.Ratio52wHigh) || math.IsNaN(rs.RatioToday) {
		t.Errorf("NaN leaked into ratio: %+v", rs)
	}

	tk, bm = ratioSeries(rising(252))
	bm[10].Close = math.NaN()
	if rs := ComputeRS(tk, bm, th); rs != nil {
		t.Errorf("benchmark NaN leaves 251 points: expected nil, got %+v", rs)
	}
}

func TestComputeRS_BlueDot(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name   string
		mutate func(r []float64)
		want   bool
	}{
		{"new high today", func(r []float64) {}, true},
		{"historical ratio raised above today", func(r []float64) { r[100] = r[len(r)-1] * 1.2 }, false},
		{"within tolerance", func(r []float64) { r[100] = 2; r[len(r)-1] = 1.992 }, true},
		{"outside tolerance", func(r []float64) { r[100] = 2; r[len(r)-1] = 1.988 }, false},
		{"today raised with history", func(r []float64) { r[100] = 3; r[len(r)-1] = 3 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratios := rising(300)
			tt.mutate(ratios)
			tk, bm := ratioSeries(ratios)
			rs := ComputeRS(tk, bm, th)
			if rs == nil {
				t.Fatal("expected context")
			}
			if rs.IsBlueDot != tt.want {
				t.Errorf("IsBlueDot = %v, want %v (today %.4f, high %.4f)", rs.IsBlueDot, tt.want, rs.RatioToday, rs.Ratio52wHigh)
			}
		})
	}
}

func TestComputeRS_OnlyTrailingWindowCounts(t *testing.T) {
	th := DefaultThresholds()
	ratios := rising(300)
	ratios[10] = 10 // older than the trailing 252 points
	tk, bm := ratioSeries(ratios)
	rs := ComputeRS(tk, bm, th)
	if rs == nil || !rs.IsBlueDot {
		t.Errorf("expected blue dot when the spike is outside the window, got %+v", rs)
	}
}
