// Package scanner runs the classifiers over a ticker universe.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"SwingScanner/internal/calculator"
	"SwingScanner/internal/model"
	"SwingScanner/internal/recorder"
	"SwingScanner/internal/strategy"
)

// HotSectorMin is the setup count at which a sector is reported as hot.
const HotSectorMin = 3

// DefaultBenchmark is the symbol used for the regime gate and RS line.
const DefaultBenchmark = "SPY"

// Source returns a cleaned daily series for a symbol, or nil when there is no data.
type Source interface {
	Collect(ctx context.Context, symbol string) (*model.PriceSeries, error)
}

// SectorLookup maps a ticker to its sector.
type SectorLookup interface {
	Sector(ticker string) string
}

// Options controls scan concurrency and the benchmark symbol.
type Options struct {
	Workers          int
	FetchConcurrency int
	Benchmark        string
}

// Scanner fans classifiers out over a ticker universe.
type Scanner struct {
	source  Source
	sectors SectorLookup
	sink    recorder.Recorder
	th      strategy.Thresholds
	opts    Options
	sem     *semaphore.Weighted
	log     zerolog.Logger

	zones    *strategy.ZoneExtractor
	pullback strategy.Classifier
	breakout strategy.Classifier
	base     strategy.Classifier

	// OnProgress is called after every ticker with the number finished so far.
	// It may be called from several goroutines.
	OnProgress func(done, total int)

	now func() time.Time
}

// New creates a Scanner. A nil sink discards results.
func New(source Source, sectors SectorLookup, sink recorder.Recorder, th strategy.Thresholds, opts Options, logger zerolog.Logger) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = opts.Workers
	}
	if opts.Benchmark == "" {
		opts.Benchmark = DefaultBenchmark
	}
	if sink == nil {
		sink = recorder.NewNoopRecorder()
	}
	return &Scanner{
		source:   source,
		sectors:  sectors,
		sink:     sink,
		th:       th,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(opts.FetchConcurrency)),
		log:      logger.With().Str("component", "scanner").Logger(),
		zones:    strategy.NewZoneExtractor(th),
		pullback: strategy.NewPullbackClassifier(th),
		breakout: strategy.NewBreakoutClassifier(th),
		base:     strategy.NewBaseClassifier(th),
		now:      time.Now,
	}
}

// benchContext is the per-scan market context shared read-only by all tickers.
type benchContext struct {
	bars   []model.OHLCV
	regime model.MarketRegime
	ret    float64
}

// tickerOutcome is one ticker's private result slot.
type tickerOutcome struct {
	scanned bool
	failed  bool
	setups  []model.Setup
	zones   []model.Zone
}

// Scan runs one pass over tickers, records it and returns the result.
// Ticker failures are isolated; a sink failure or cancellation fails the scan.
func (s *Scanner) Scan(ctx context.Context, tickers []string) (*model.ScanResult, error) {
	start := s.now()
	res := &model.ScanResult{
		ID:        uuid.NewString(),
		Timestamp: start.UTC(),
		Tickers:   len(tickers),
		Zones:     make(map[string][]model.Zone),
	}
	log := s.log.With().Str("scan_id", res.ID).Logger()
	log.Info().Int("tickers", len(tickers)).Int("workers", s.opts.Workers).Msg("scan started")

	bench := s.loadBenchmark(ctx, log)
	res.Regime = bench.regime
	if !bench.regime.IsBullish {
		log.Info().Str("regime", bench.regime.String()).Msg("regime not bullish, breakout and base classifiers disabled")
	}

	outcomes := make([]tickerOutcome, len(tickers))
	var done atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)
	for i, ticker := range tickers {
		if ctx.Err() != nil {
			break
		}
		i, ticker := i, ticker
		g.Go(func() error {
			outcomes[i] = s.scanTicker(ctx, ticker, bench)
			if s.OnProgress != nil {
				s.OnProgress(int(done.Add(1)), len(tickers))
			}
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		log.Warn().Int64("finished", done.Load()).Msg("scan canceled")
		return nil, fmt.Errorf("scan canceled: %w", err)
	}

	for i, o := range outcomes {
		if o.scanned {
			res.Scanned++
		}
		if o.failed {
			res.Failed++
			continue
		}
		res.Setups = append(res.Setups, o.setups...)
		if len(o.zones) > 0 {
			res.Zones[tickers[i]] = o.zones
		}
	}
	sortSetups(res.Setups)
	res.Sectors = Rollup(res.Setups)
	res.Duration = s.now().Sub(start)

	for _, sr := range res.Sectors {
		if sr.Count >= HotSectorMin {
			log.Info().Str("sector", sr.Sector).Int("setups", sr.Count).Msg("hot sector")
		}
	}

	if err := s.sink.RecordScan(ctx, res); err != nil {
		log.Error().Err(err).Msg("failed to record scan")
		return nil, fmt.Errorf("record scan: %w", err)
	}

	log.Info().
		Int("scanned", res.Scanned).
		Int("failed", res.Failed).
		Int("vcp", res.CountByType(model.SetupVCP)).
		Int("pullback", res.CountByType(model.SetupPullback)).
		Int("base", res.CountByType(model.SetupBase)).
		Dur("duration", res.Duration).
		Msg("scan completed")
	return res, nil
}

func (s *Scanner) loadBenchmark(ctx context.Context, log zerolog.Logger) benchContext {
	bc := benchContext{ret: math.NaN()}
	series, err := s.fetch(ctx, s.opts.Benchmark)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("benchmark", s.opts.Benchmark).Msg("benchmark fetch failed")
		bc.regime = strategy.RegimeFromError(err)
		return bc
	case series.Len() == 0:
		bc.regime = strategy.RegimeFromError(errors.New("no data"))
		return bc
	}
	bc.bars = series.Bars
	bc.regime = strategy.DetectRegime(series.Bars, s.th)
	if r, err := calculator.PeriodReturn(calculator.Closes(series.Bars), s.th.ReturnLookback); err == nil {
		bc.ret = r
	}
	return bc
}

func (s *Scanner) fetch(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)
	return s.source.Collect(ctx, symbol)
}

// scanTicker fetches one ticker, extracts zones and runs the classifiers.
// Failures are contained to the ticker: a fetch error, a zone failure other
// than short or degenerate data, a classifier error or a classifier panic
// drops every setup of this ticker and marks it failed. ErrDegenerate from a
// classifier is not a failure; that classifier reports no match and the
// ticker keeps the setups of the others.
func (s *Scanner) scanTicker(ctx context.Context, ticker string, bench benchContext) (out tickerOutcome) {
	log := s.log.With().Str("ticker", ticker).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("ticker dropped")
			out = tickerOutcome{scanned: out.scanned, failed: true}
		}
	}()

	series, err := s.fetch(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Msg("fetch failed, skipping")
		return tickerOutcome{failed: true}
	}
	if series.Len() < s.th.MinBars {
		log.Debug().Int("bars", series.Len()).Msg("not enough history, skipping")
		return tickerOutcome{}
	}
	out.scanned = true

	zones, err := s.zones.Extract(series.Bars)
	switch {
	case err == nil:
	case errors.Is(err, strategy.ErrInsufficientData), strategy.IsDegenerate(err):
		log.Debug().Err(err).Msg("no zones")
	default:
		log.Warn().Err(err).Msg("zone extraction failed, ticker dropped")
		out.failed = true
		return out
	}
	out.zones = zones

	in := &strategy.Input{
		Ticker:          ticker,
		Bars:            series.Bars,
		Zones:           zones,
		BenchmarkReturn: bench.ret,
	}
	classifiers := []strategy.Classifier{s.pullback}
	if bench.regime.IsBullish {
		in.RS = strategy.ComputeRS(series.Bars, bench.bars, s.th)
		classifiers = append(classifiers, s.breakout, s.base)
	}

	found := make([]*model.Setup, len(classifiers))
	var g errgroup.Group
	for i, c := range classifiers {
		i, c := i, c
		g.Go(func() error {
			setup, err := classify(c, in)
			if err != nil {
				if strategy.IsDegenerate(err) {
					log.Debug().Err(err).Str("classifier", c.Name()).Msg("degenerate input")
					return nil
				}
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			found[i] = setup
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("classifier failed, ticker dropped")
		out.failed = true
		return out
	}

	sector := s.sector(ticker)
	for _, setup := range found {
		if setup == nil {
			continue
		}
		setup.Sector = sector
		out.setups = append(out.setups, *setup)
	}
	return out
}

// classify runs one classifier, converting a panic into an error.
func classify(c strategy.Classifier, in *strategy.Input) (setup *model.Setup, err error) {
	defer func() {
		if r := recover(); r != nil {
			setup, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Classify(in)
}

func (s *Scanner) sector(ticker string) string {
	if s.sectors == nil {
		return "Unknown"
	}
	return s.sectors.Sector(ticker)
}

// Rollup counts setups per sector, largest first, ties by sector name.
func Rollup(setups []model.Setup) []model.SectorRollup {
	counts := make(map[string]int)
	for i := range setups {
		counts[setups[i].Sector]++
	}
	out := make([]model.SectorRollup, 0, len(counts))
	for sector, n := range counts {
		out = append(out, model.SectorRollup{Sector: sector, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

func sortSetups(setups []model.Setup) {
	sort.SliceStable(setups, func(i, j int) bool {
		if setups[i].Ticker != setups[j].Ticker {
			return setups[i].Ticker < setups[j].Ticker
		}
		return setups[i].SetupType < setups[j].SetupType
	})
}
