package collector

import (
	"context"

	"SwingScanner/internal/model"
)

// Fetcher defines the interface for fetching market data.
// A nil slice with a nil error means the symbol has no data and should be skipped.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}
