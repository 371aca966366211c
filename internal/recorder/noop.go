package recorder

import (
	"context"

	"SwingScanner/internal/model"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ context.Context, _ *model.ScanResult) error { return nil }
func (n *NoopRecorder) Close() error                                          { return nil }
