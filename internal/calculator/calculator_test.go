package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	talib "github.com/markcheno/go-talib"

	"SwingScanner/internal/model"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func makeBars(closes []float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		period  int
		want    float64
		wantErr bool
	}{
		{"last three", []float64{1, 2, 3, 4, 5}, 3, 4, false},
		{"full window", []float64{2, 4}, 2, 3, false},
		{"too short", []float64{1, 2}, 3, 0, true},
		{"zero period", []float64{1, 2}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSMA(tt.prices, tt.period)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestSMASeries_LeadingNaN(t *testing.T) {
	s := SMASeries([]float64{1, 2, 3, 4}, 3)
	if !math.IsNaN(s[0]) || !math.IsNaN(s[1]) {
		t.Fatalf("expected NaN before period-1, got %v", s[:2])
	}
	if s[2] != 2 || s[3] != 3 {
		t.Errorf("got %v, want [.. 2 3]", s)
	}
}

func TestEMASeries_SeededWithFirstValue(t *testing.T) {
	vals := []float64{10, 11, 12, 13}
	s := EMASeries(vals, 3)
	alpha := 0.5
	e1 := alpha*11 + (1-alpha)*10
	e2 := alpha*12 + (1-alpha)*e1
	if !math.IsNaN(s[1]) {
		t.Errorf("expected NaN at index 1, got %.4f", s[1])
	}
	if !approx(s[2], e2, 1e-12) {
		t.Errorf("ema[2] = %.6f, want %.6f", s[2], e2)
	}
}

func TestTrueRange_UsesPreviousClose(t *testing.T) {
	bars := []model.OHLCV{
		{High: 11, Low: 9, Close: 10},
		{High: 15, Low: 14, Close: 14.5},
	}
	tr := TrueRangeSeries(bars)
	if tr[0] != 2 {
		t.Errorf("first TR = %.2f, want 2", tr[0])
	}
	if tr[1] != 5 {
		t.Errorf("gap TR = %.2f, want 5", tr[1])
	}
}

func TestCalculateATR_ConstantRange(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	atr, err := CalculateATR(makeBars(closes), 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(atr, 2, 1e-9) {
		t.Errorf("ATR = %.4f, want 2", atr)
	}
}

func TestCCISeries_ZeroDeviationIsNaN(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50
	}
	cci := CCISeries(makeBars(closes), 20)
	if !math.IsNaN(Last(cci)) {
		t.Errorf("expected NaN for flat series, got %.4f", Last(cci))
	}
}

func TestCCISeries_RisingSeriesPositive(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50 + float64(i)
	}
	cci := CCISeries(makeBars(closes), 20)
	if v := Last(cci); math.IsNaN(v) || v <= 0 {
		t.Errorf("expected positive CCI, got %.4f", v)
	}
}

func TestFitParabola_RecoversCoefficients(t *testing.T) {
	y := make([]float64, 10)
	for i := range y {
		x := float64(i)
		y[i] = 0.5*x*x - 2*x + 3
	}
	a, b, c, err := FitParabola(y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(a, 0.5, 1e-9) || !approx(b, -2, 1e-9) || !approx(c, 3, 1e-9) {
		t.Errorf("got a=%.4f b=%.4f c=%.4f", a, b, c)
	}
}

func TestFitLine(t *testing.T) {
	x := []float64{0, 5, 10}
	y := []float64{100, 95, 90}
	icpt, slope, err := FitLine(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(slope, -1, 1e-9) || !approx(icpt, 100, 1e-9) {
		t.Errorf("got intercept=%.4f slope=%.4f", icpt, slope)
	}
	if _, _, err := FitLine([]float64{3, 3}, []float64{1, 2}); !errors.Is(err, ErrDegenerate) {
		t.Errorf("expected ErrDegenerate, got %v", err)
	}
}

func TestPeriodReturn(t *testing.T) {
	r, err := PeriodReturn([]float64{100, 105, 110}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(r, 0.10, 1e-12) {
		t.Errorf("got %.4f, want 0.10", r)
	}
	if _, err := PeriodReturn([]float64{100, 110}, 2); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		current, high, low, want float64
	}{
		{75, 100, 50, 0.5},
		{120, 100, 50, 1},
		{10, 100, 50, 0},
		{80, 80, 80, 0.5},
	}
	for _, tt := range tests {
		got, err := RangePosition(tt.current, tt.high, tt.low)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("RangePosition(%v,%v,%v) = %v, want %v", tt.current, tt.high, tt.low, got, tt.want)
		}
	}
}

func TestAverageVolumeBefore_ExcludesToday(t *testing.T) {
	bars := makeBars([]float64{1, 2, 3, 4})
	bars[3].Volume = 1e9
	avg, err := AverageVolumeBefore(bars, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avg != 1000 {
		t.Errorf("got %.0f, want 1000", avg)
	}
}

func TestRoundPrice(t *testing.T) {
	if got := RoundPrice(101.23456); got != 101.23 {
		t.Errorf("got %v, want 101.23", got)
	}
	if got := RoundPrice(2.345); got != 2.35 {
		t.Errorf("got %v, want 2.35", got)
	}
	if !math.IsNaN(RoundPrice(math.NaN())) {
		t.Error("NaN should pass through")
	}
}

func TestCCISeries_MatchesLambertFormula(t *testing.T) {
	bars := make([]model.OHLCV, 30)
	for i := range bars {
		c := 50 + 3*math.Sin(float64(i)/3)
		bars[i] = model.OHLCV{High: c + 1, Low: c - 0.5, Close: c}
	}
	cci := CCISeries(bars, 20)

	tp := make([]float64, len(bars))
	for i, b := range bars {
		tp[i] = (b.High + b.Low + b.Close) / 3
	}
	for i := 19; i < len(bars); i++ {
		window := tp[i-19 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= 20
		dev := 0.0
		for _, v := range window {
			dev += math.Abs(v - mean)
		}
		want := (tp[i] - mean) / (0.015 * dev / 20)
		if !approx(cci[i], want, 1e-9) {
			t.Errorf("cci[%d] = %.6f, want %.6f", i, cci[i], want)
		}
	}
	for i := 0; i < 19; i++ {
		if !math.IsNaN(cci[i]) {
			t.Errorf("cci[%d] = %.4f, want NaN", i, cci[i])
		}
	}
}

func TestSMASeries_ShortInput(t *testing.T) {
	s := SMASeries([]float64{1, 2}, 3)
	if len(s) != 2 || !math.IsNaN(s[0]) || !math.IsNaN(s[1]) {
		t.Errorf("expected all NaN, got %v", s)
	}
}

// The moving averages below keep the pandas adjust=False seed; talib seeds
// from an SMA and gives different values on the same input.
func TestEMASeries_SeedDiffersFromTalib(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ours := EMASeries(vals, 3)
	ta := talib.Ema(vals, 3)
	if !approx(ours[2], 2.25, 1e-12) {
		t.Errorf("ema[2] = %.4f, want 2.25", ours[2])
	}
	if !approx(ta[2], 2, 1e-12) {
		t.Errorf("talib ema[2] = %.4f, want 2", ta[2])
	}
	if approx(Last(ours), Last(ta), 1e-6) {
		t.Errorf("expected seeds to leave a gap, both %.6f", Last(ours))
	}
}

func TestATRSeries_SeedDiffersFromTalib(t *testing.T) {
	bars := []model.OHLCV{{High: 110, Low: 100, Close: 105}}
	for i := 0; i < 5; i++ {
		bars = append(bars, model.OHLCV{High: 105.5, Low: 104.5, Close: 105})
	}
	ours := ATRSeries(bars, 3)
	highs, lows, closes := hlc(bars)
	ta := talib.Atr(highs, lows, closes, 3)

	// 10 -> 7 -> 5 -> 11/3 -> 25/9 -> 59/27 with alpha 1/3
	if !approx(Last(ours), 59.0/27, 1e-9) {
		t.Errorf("atr = %.6f, want %.6f", Last(ours), 59.0/27)
	}
	if !approx(Last(ta), 1, 1e-9) {
		t.Errorf("talib atr = %.6f, want 1", Last(ta))
	}
}
