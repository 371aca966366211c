package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"SwingScanner/internal/model"
)

// DefaultHistoryDays covers the 252-bar RS window plus indicator warm-up.
const DefaultHistoryDays = 400

// Collector fetches a symbol's daily history and cleans it for analysis.
type Collector struct {
	Fetcher Fetcher
	Days    int
	Retries int
	Backoff time.Duration

	log zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, days int, logger zerolog.Logger) *Collector {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	return &Collector{
		Fetcher: fetcher,
		Days:    days,
		Retries: 1,
		Backoff: time.Second,
		log:     logger.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect returns the cleaned series for symbol, or nil when the supplier has no data.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	bars, err := c.fetchWithRetry(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	bars = Clean(bars)
	if len(bars) == 0 {
		c.log.Debug().Str("symbol", symbol).Msg("no usable bars")
		return nil, nil
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now().UTC()}, nil
}

func (c *Collector) fetchWithRetry(ctx context.Context, symbol string) ([]model.OHLCV, error) {
	var lastErr error
	attempts := c.Retries
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if i > 0 {
			backoff := c.Backoff * time.Duration(1<<uint(i-1))
			c.log.Debug().Str("symbol", symbol).Int("attempt", i+1).Dur("backoff", backoff).Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Days)
		if err == nil {
			return bars, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Clean drops bars with a missing or non-positive close, repairs open, high
// and low so the bar is consistent, drops duplicate dates keeping the latest,
// and sorts the result chronologically.
func Clean(bars []model.OHLCV) []model.OHLCV {
	if len(bars) == 0 {
		return nil
	}
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			continue
		}
		if math.IsNaN(b.Volume) || b.Volume < 0 {
			b.Volume = 0
		}
		if math.IsNaN(b.Open) || math.IsInf(b.Open, 0) || b.Open <= 0 {
			b.Open = b.Close
		}
		// high and low must bracket both open and close
		if top := math.Max(b.Open, b.Close); math.IsNaN(b.High) || b.High < top {
			b.High = top
		}
		if bottom := math.Min(b.Open, b.Close); math.IsNaN(b.Low) || b.Low <= 0 || b.Low > bottom {
			b.Low = bottom
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for _, b := range out {
		n := len(dedup)
		if n > 0 && sameDay(dedup[n-1].Time, b.Time) {
			dedup[n-1] = b
			continue
		}
		dedup = append(dedup, b)
	}
	if len(dedup) == 0 {
		return nil
	}
	return dedup
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}
