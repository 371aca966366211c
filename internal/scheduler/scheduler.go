package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"SwingScanner/internal/model"
	"SwingScanner/internal/notifier"
	"SwingScanner/internal/status"
)

// Runner executes one scan pass.
type Runner interface {
	Scan(ctx context.Context, tickers []string) (*model.ScanResult, error)
}

// TickerSource returns the tickers for the next scan. It is called on every run
// so universe file edits take effect without a restart.
type TickerSource func() ([]string, error)

// Scheduler manages the cron-driven scans and Telegram commands.
type Scheduler struct {
	Cron     *cron.Cron
	Scanner  Runner
	Tickers  TickerSource
	Status   *status.Tracker
	Notifier notifier.Notifier
	Ctx      context.Context

	log  zerolog.Logger
	mu   sync.Mutex
	last *model.ScanResult
	wg   sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner Runner, tickers TickerSource, tracker *status.Tracker, n notifier.Notifier, logger zerolog.Logger) *Scheduler {
	lg := logger.With().Str("component", "scheduler").Logger()
	cronLog := cron.PrintfLogger(&lg)
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		Scanner:  runner,
		Tickers:  tickers,
		Status:   tracker,
		Notifier: n,
		Ctx:      ctx,
		log:      lg,
	}
}

// RegisterAll registers the scan task.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.RunScan); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running scans.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// Last returns the most recent completed scan, or nil.
func (s *Scheduler) Last() *model.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunScan runs one full scan and reports the outcome.
func (s *Scheduler) RunScan() {
	tickers, err := s.Tickers()
	if err != nil {
		s.log.Error().Err(err).Msg("load universe")
		s.trySend(notifier.FormatError("universe load", err))
		return
	}
	if err := s.Status.Begin(len(tickers)); err != nil {
		s.log.Warn().Err(err).Msg("scan skipped")
		return
	}

	s.log.Info().Int("tickers", len(tickers)).Msg("running scan")
	res, err := s.Scanner.Scan(s.Ctx, tickers)
	if err != nil {
		s.Status.Fail(err)
		if errors.Is(err, context.Canceled) {
			s.log.Info().Msg("scan canceled")
			return
		}
		s.log.Error().Err(err).Msg("scan failed")
		s.trySend(notifier.FormatError("scan", err))
		return
	}

	s.Status.Complete(res)
	s.mu.Lock()
	s.last = res
	s.mu.Unlock()
	s.trySend(notifier.FormatScanReport(res))
}

// RunScanAsync starts RunScan on its own goroutine; Stop waits for it.
func (s *Scheduler) RunScanAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunScan()
	}()
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	cmd := strings.Fields(command)
	if len(cmd) == 0 {
		return notifier.FormatHelp()
	}
	// "/scan@MyBot" in group chats
	name, _, _ := strings.Cut(strings.ToLower(cmd[0]), "@")
	switch name {
	case "/scan":
		if s.Status.Get().InProgress {
			return "⏳ A scan is already running."
		}
		s.RunScanAsync()
		return "🔍 Scan started."
	case "/status":
		return notifier.FormatStatus(s.Status.Get())
	case "/sectors":
		return notifier.FormatSectors(s.Last())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
