package model

import "time"

// SectorRollup counts setups per sector.
type SectorRollup struct {
	Sector string `json:"sector"`
	Count  int    `json:"count"`
}

// ScanResult is everything one scan pass produced.
type ScanResult struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Regime    MarketRegime      `json:"regime"`
	Tickers   int               `json:"tickers"`
	Scanned   int               `json:"scanned"`
	Failed    int               `json:"failed"`
	Setups    []Setup           `json:"setups"`
	Zones     map[string][]Zone `json:"zones,omitempty"`
	Sectors   []SectorRollup    `json:"sectors"`
	Duration  time.Duration     `json:"duration"`
}

// CountByType returns the number of setups of the given type.
func (r *ScanResult) CountByType(t SetupType) int {
	n := 0
	for i := range r.Setups {
		if r.Setups[i].SetupType == t {
			n++
		}
	}
	return n
}

// ScanStatus tracks scan progress across runs.
type ScanStatus struct {
	InProgress    bool      `json:"in_progress"`
	Progress      int       `json:"progress"`
	Total         int       `json:"total"`
	ScanID        string    `json:"scan_id,omitempty"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	LastCompleted time.Time `json:"last_completed,omitempty"`
	LastSetups    int       `json:"last_setups"`
	LastError     string    `json:"last_error,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}
