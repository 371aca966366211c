package status

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"SwingScanner/internal/model"
)

func TestTracker_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	tr, err := NewTracker(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Begin(50); err != nil {
		t.Fatal(err)
	}
	if err := tr.Begin(50); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("expected ErrScanInProgress, got %v", err)
	}
	tr.Progress(25, 50)

	st, err := LoadStatus(path)
	if err != nil {
		t.Fatal(err)
	}
	if !st.InProgress || st.Progress != 25 || st.Total != 50 {
		t.Errorf("persisted status = %+v", st)
	}

	done := time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC)
	tr.Complete(&model.ScanResult{ID: "scan-1", Timestamp: done, Setups: make([]model.Setup, 3)})
	got := tr.Get()
	if got.InProgress || got.LastSetups != 3 || !got.LastCompleted.Equal(done) || got.Progress != 50 || got.ScanID != "scan-1" {
		t.Errorf("after Complete: %+v", got)
	}
}

func TestTracker_Fail(t *testing.T) {
	tr, err := NewTracker("", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Begin(10); err != nil {
		t.Fatal(err)
	}
	tr.Fail(errors.New("record scan: disk full"))
	got := tr.Get()
	if got.InProgress || got.LastError != "record scan: disk full" {
		t.Errorf("after Fail: %+v", got)
	}
	if err := tr.Begin(10); err != nil {
		t.Errorf("Begin after Fail: %v", err)
	}
}

func TestNewTracker_MarksInterrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	if err := SaveStatus(path, &model.ScanStatus{InProgress: true, Progress: 7, Total: 10}); err != nil {
		t.Fatal(err)
	}
	tr, err := NewTracker(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	got := tr.Get()
	if got.InProgress || got.LastError != "interrupted" {
		t.Errorf("expected interrupted status, got %+v", got)
	}
}

func TestLoadStatus_Missing(t *testing.T) {
	st, err := LoadStatus(filepath.Join(t.TempDir(), "none.json"))
	if err != nil || st == nil || st.InProgress {
		t.Errorf("expected zero status, got %+v, %v", st, err)
	}
}
