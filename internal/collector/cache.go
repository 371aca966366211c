package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"SwingScanner/internal/model"
)

// DefaultCacheTTL keeps daily bars for most of a trading day.
const DefaultCacheTTL = 6 * time.Hour

const cacheKeyFmt = "bars:%s:%s:%d" // fetcher, symbol, days

// CachedFetcher wraps a Fetcher with a Redis read-through cache.
// Redis failures degrade to a direct fetch.
type CachedFetcher struct {
	next   Fetcher
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachedFetcher creates a Redis-backed decorator around next.
func NewCachedFetcher(next Fetcher, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    logger.With().Str("component", "bar_cache").Logger(),
	}
}

// NewRedisClient connects to addr and verifies it with a ping.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (c *CachedFetcher) Name() string { return c.next.Name() + "+redis" }

func (c *CachedFetcher) key(symbol string, days int) string {
	return fmt.Sprintf(cacheKeyFmt, c.next.Name(), symbol, days)
}

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	key := c.key(symbol, days)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bars []model.OHLCV
		if jerr := json.Unmarshal(raw, &bars); jerr == nil {
			return bars, nil
		}
		c.log.Debug().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, fetching directly")
	}

	bars, err := c.next.FetchDailyBars(ctx, symbol, days)
	if err != nil || len(bars) == 0 {
		return bars, err
	}

	payload, err := json.Marshal(bars)
	if err != nil {
		return bars, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return bars, nil
}
