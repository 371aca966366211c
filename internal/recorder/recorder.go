package recorder

import (
	"context"
	"encoding/json"
	"errors"

	"SwingScanner/internal/model"
)

// Recorder persists scan results for later analysis.
// RecordScan is idempotent per (scan timestamp, ticker, setup type).
type Recorder interface {
	RecordScan(ctx context.Context, res *model.ScanResult) error
	Close() error
}

// setupRow is the flattened persisted form of a setup.
type setupRow struct {
	ScanID     string  `db:"scan_id"`
	ScanTS     int64   `db:"scan_timestamp"`
	Ticker     string  `db:"ticker"`
	Sector     string  `db:"sector"`
	SetupType  string  `db:"setup_type"`
	Entry      float64 `db:"entry"`
	StopLoss   float64 `db:"stop_loss"`
	TakeProfit float64 `db:"take_profit"`
	RiskReward float64 `db:"risk_reward"`
	SetupDate  string  `db:"setup_date"`
	Metadata   string  `db:"metadata"`
}

type zoneRow struct {
	ScanTS int64  `db:"scan_timestamp"`
	Ticker string `db:"ticker"`
	model.Zone
}

func setupRows(res *model.ScanResult) ([]setupRow, error) {
	ts := res.Timestamp.Unix()
	rows := make([]setupRow, 0, len(res.Setups))
	for i := range res.Setups {
		s := &res.Setups[i]
		meta, err := json.Marshal(s.Detail())
		if err != nil {
			return nil, err
		}
		rows = append(rows, setupRow{
			ScanID:     res.ID,
			ScanTS:     ts,
			Ticker:     s.Ticker,
			Sector:     s.Sector,
			SetupType:  string(s.SetupType),
			Entry:      s.Entry,
			StopLoss:   s.StopLoss,
			TakeProfit: s.TakeProfit,
			RiskReward: s.RiskReward,
			SetupDate:  s.SetupDate.Format("2006-01-02"),
			Metadata:   string(meta),
		})
	}
	return rows, nil
}

func zoneRows(res *model.ScanResult) []zoneRow {
	ts := res.Timestamp.Unix()
	var rows []zoneRow
	for ticker, zones := range res.Zones {
		for _, z := range zones {
			rows = append(rows, zoneRow{ScanTS: ts, Ticker: ticker, Zone: z})
		}
	}
	return rows
}

// Multi fans a scan out to several recorders. Every recorder is attempted.
type Multi []Recorder

func (m Multi) RecordScan(ctx context.Context, res *model.ScanResult) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordScan(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
