package strategy

import (
	"math"
	"testing"
	"time"

	"SwingScanner/internal/model"
)

var day0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// barsFromCloses builds daily bars with a symmetric high/low band around each close.
func barsFromCloses(closes []float64, band, volume float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c * (1 + band),
			Low:    c * (1 - band),
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

func constCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// assertSetupInvariants checks price ordering and the risk guard.
func assertSetupInvariants(t *testing.T, s *model.Setup) {
	t.Helper()
	if !(s.StopLoss < s.Entry && s.Entry < s.TakeProfit) {
		t.Errorf("expected stop < entry < target, got %.2f / %.2f / %.2f", s.StopLoss, s.Entry, s.TakeProfit)
	}
	if s.Entry-s.StopLoss > 0.15*s.Entry {
		t.Errorf("risk %.2f exceeds 15%% of entry %.2f", s.Entry-s.StopLoss, s.Entry)
	}
	if math.Abs(s.RiskReward-2) > 0.05 {
		t.Errorf("expected ~2:1 reward/risk, got %.2f", s.RiskReward)
	}
}
