package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"SwingScanner/internal/collector"
	"SwingScanner/internal/config"
	"SwingScanner/internal/recorder"
	"SwingScanner/internal/scanner"
	"SwingScanner/internal/universe"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	collector *collector.Collector
	sink      recorder.Recorder
	scanner   *scanner.Scanner
	closers   []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: logger}

	fetcher, err := a.newFetcher(ctx)
	if err != nil {
		return nil, err
	}
	a.collector = collector.NewCollector(fetcher, cfg.DataSource.HistoryDays, logger)
	a.collector.Retries = cfg.DataSource.Retries
	logger.Info().Str("source", fetcher.Name()).Msg("data source ready")

	if a.sink, err = a.newRecorder(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.sink.Close)
	return a, nil
}

// withScanner builds the scanner over the given sector lookup.
func (a *app) withScanner(sectors scanner.SectorLookup) *scanner.Scanner {
	a.scanner = scanner.New(a.collector, sectors, a.sink, a.cfg.Strategy, scanner.Options{
		Workers:          a.cfg.Scan.Workers,
		FetchConcurrency: a.cfg.Scan.FetchConcurrency,
		Benchmark:        a.cfg.Scan.Benchmark,
	}, a.log)
	return a.scanner
}

func (a *app) newFetcher(ctx context.Context) (collector.Fetcher, error) {
	var f collector.Fetcher
	switch a.cfg.DataSource.Provider {
	case "rest":
		f = collector.NewRESTFetcher(a.cfg.DataSource.BaseURL, a.cfg.DataSource.APIKey, a.cfg.Proxy)
	default:
		f = collector.NewYahooFetcher(a.cfg.Proxy)
	}
	if a.cfg.Redis.Addr == "" {
		return f, nil
	}
	client, err := collector.NewRedisClient(ctx, a.cfg.Redis.Addr)
	if err != nil {
		a.log.Warn().Err(err).Msg("redis unavailable, fetching without cache")
		return f, nil
	}
	a.closers = append(a.closers, client.Close)
	return collector.NewCachedFetcher(f, client, a.cfg.Redis.TTL, a.log), nil
}

func (a *app) newRecorder(ctx context.Context) (recorder.Recorder, error) {
	var recs recorder.Multi
	if path := a.cfg.Database.SQLitePath; path != "" {
		r, err := recorder.NewSQLiteRecorder(path, a.log)
		if err != nil {
			return nil, fmt.Errorf("init sqlite recorder: %w", err)
		}
		recs = append(recs, r)
	}
	if dsn := a.cfg.Database.PostgresDSN; dsn != "" {
		r, err := recorder.NewPostgresRecorder(ctx, dsn, a.log)
		if err != nil {
			recs.Close()
			return nil, fmt.Errorf("init postgres recorder: %w", err)
		}
		recs = append(recs, r)
	}
	switch len(recs) {
	case 0:
		a.log.Warn().Msg("no database configured, scan results will not be stored")
		return recorder.NewNoopRecorder(), nil
	case 1:
		return recs[0], nil
	}
	return recs, nil
}

// loadUniverse returns the filtered tickers and the sector map.
func (a *app) loadUniverse() ([]string, *universe.Universe, error) {
	u, err := universe.Load(a.cfg.Universe.Path)
	if err != nil {
		return nil, nil, err
	}
	tickers, err := u.Filtered(a.cfg.Universe.Exclude)
	if err != nil {
		return nil, nil, err
	}
	if len(tickers) == 0 {
		return nil, nil, errors.New("universe is empty after filtering")
	}
	return tickers, u, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error().Err(err).Msg("close")
		}
	}
}
