package model

import "time"

// SetupType identifies which classifier produced a setup.
type SetupType string

const (
	SetupVCP      SetupType = "VCP"
	SetupPullback SetupType = "PULLBACK"
	SetupBase     SetupType = "BASE"
)

// BreakoutPath names the breakout detection path that matched.
type BreakoutPath string

const (
	PathDryUp      BreakoutPath = "DRY_UP"
	PathConfirmed  BreakoutPath = "CONFIRMED"
	PathTrendline  BreakoutPath = "TRENDLINE"
	PathHorizontal BreakoutPath = "HORIZONTAL"
	PathRSLead     BreakoutPath = "RS_LEAD"
)

// BasePattern is the consolidation shape found by the base classifier.
type BasePattern string

const (
	PatternCupHandle BasePattern = "CUP_HANDLE"
	PatternFlatBase  BasePattern = "FLAT_BASE"
)

// BaseSignal is DRY before the pivot is cleared and BRK after.
type BaseSignal string

const (
	SignalDry BaseSignal = "DRY"
	SignalBrk BaseSignal = "BRK"
)

// Setup is a candidate trade emitted by one classifier.
// StopLoss < Entry < TakeProfit and Entry-StopLoss <= 15% of Entry.
type Setup struct {
	Ticker     string    `json:"ticker"`
	Sector     string    `json:"sector"`
	SetupType  SetupType `json:"setup_type"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	RiskReward float64   `json:"risk_reward"`
	SetupDate  time.Time `json:"setup_date"`

	Breakout *BreakoutDetail `json:"breakout,omitempty"`
	Pullback *PullbackDetail `json:"pullback,omitempty"`
	Base     *BaseDetail     `json:"base,omitempty"`
}

// BreakoutDetail carries VCP-specific fields.
type BreakoutDetail struct {
	Path             BreakoutPath `json:"path"`
	DistancePct      float64      `json:"distance_pct"`
	VolumeRatio      float64      `json:"volume_ratio"`
	ResistanceLevel  float64      `json:"resistance_level"`
	TRContractionPct float64      `json:"tr_contraction_pct,omitempty"`
	IsRSLead         bool         `json:"is_rs_lead"`
	IsBlueDot        bool         `json:"is_blue_dot"`
}

// PullbackDetail carries pullback-specific fields.
type PullbackDetail struct {
	IsRelaxed    bool    `json:"is_relaxed"`
	CCIToday     float64 `json:"cci_today"`
	CCIYesterday float64 `json:"cci_yesterday"`
	EMA8         float64 `json:"ema8"`
	EMA20        float64 `json:"ema20"`
	SupportLevel float64 `json:"support_level,omitempty"`
}

// BaseDetail carries base-pattern fields.
type BaseDetail struct {
	Pattern           BasePattern `json:"pattern"`
	Signal            BaseSignal  `json:"signal"`
	QualityScore      float64     `json:"quality_score"`
	DepthPct          float64     `json:"depth_pct"`
	Length            int         `json:"length"`
	VolumeDryUpPct    float64     `json:"volume_dry_up_pct"`
	RSOutperformPct   float64     `json:"rs_outperform_pct"`
	Pivot             float64     `json:"pivot"`
	HandleLength      int         `json:"handle_length,omitempty"`
	HandlePullbackPct float64     `json:"handle_pullback_pct,omitempty"`
}

// Risk returns Entry - StopLoss.
func (s *Setup) Risk() float64 { return s.Entry - s.StopLoss }

// Detail returns the type-specific fields for storage.
func (s *Setup) Detail() any {
	switch {
	case s.Breakout != nil:
		return s.Breakout
	case s.Pullback != nil:
		return s.Pullback
	case s.Base != nil:
		return s.Base
	}
	return nil
}
