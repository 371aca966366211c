package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SwingScanner/internal/model"
)

// StaticFetcher serves fixed bars per symbol for development and testing.
// Symbols listed in Errors fail with that error; unknown symbols return nil.
type StaticFetcher struct {
	Bars   map[string][]model.OHLCV
	Errors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (s *StaticFetcher) Name() string { return "static" }

func (s *StaticFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[symbol]++
	s.mu.Unlock()

	if err, ok := s.Errors[symbol]; ok {
		return nil, fmt.Errorf("static %s: %w", symbol, err)
	}
	bars, ok := s.Bars[symbol]
	if !ok {
		return nil, nil
	}
	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	return out, nil
}

// Calls returns how many times symbol was requested.
func (s *StaticFetcher) Calls(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[symbol]
}

// GenerateBars builds count daily bars drifting linearly from start by step per day.
func GenerateBars(start, step float64, count int, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := start + step*float64(i)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
