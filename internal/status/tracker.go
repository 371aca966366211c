// Package status tracks scan progress and persists it between runs.
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"SwingScanner/internal/model"
)

// ErrScanInProgress is returned by Begin while another scan is running.
var ErrScanInProgress = errors.New("scan already in progress")

// Tracker holds the scan status with concurrency safety.
// An empty file path keeps the status in memory only.
type Tracker struct {
	mu       sync.Mutex
	status   *model.ScanStatus
	filePath string
	log      zerolog.Logger
}

// NewTracker creates a Tracker, loading state from disk.
// A scan left in progress by a previous process is marked interrupted.
func NewTracker(filePath string, logger zerolog.Logger) (*Tracker, error) {
	st := &model.ScanStatus{}
	if filePath != "" {
		loaded, err := LoadStatus(filePath)
		if err != nil {
			return nil, err
		}
		st = loaded
	}
	t := &Tracker{status: st, filePath: filePath, log: logger.With().Str("component", "status").Logger()}
	if st.InProgress {
		st.InProgress = false
		st.LastError = "interrupted"
		if err := t.save(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Get returns a copy of the current status.
func (t *Tracker) Get() model.ScanStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.status
}

// Begin marks a scan over total tickers as started.
func (t *Tracker) Begin(total int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.InProgress {
		return ErrScanInProgress
	}
	t.status.InProgress = true
	t.status.ScanID = ""
	t.status.Total = total
	t.status.Progress = 0
	t.status.StartedAt = time.Now()
	t.persist()
	return nil
}

// Progress records how many tickers have finished.
func (t *Tracker) Progress(done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Progress = done
	t.status.Total = total
	// Persist every 25 tickers to limit disk writes.
	if done%25 == 0 || done == total {
		t.persist()
	}
}

// Complete records a finished scan.
func (t *Tracker) Complete(res *model.ScanResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.InProgress = false
	t.status.Progress = t.status.Total
	t.status.ScanID = res.ID
	t.status.LastCompleted = res.Timestamp
	t.status.LastSetups = len(res.Setups)
	t.status.LastError = ""
	t.persist()
}

// Fail records a scan that ended with err.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.InProgress = false
	t.status.LastError = err.Error()
	t.persist()
}

func (t *Tracker) persist() {
	if err := t.save(); err != nil {
		t.log.Error().Err(err).Msg("failed to save scan status")
	}
}

func (t *Tracker) save() error {
	if t.filePath == "" {
		t.status.UpdatedAt = time.Now()
		return nil
	}
	return SaveStatus(t.filePath, t.status)
}
