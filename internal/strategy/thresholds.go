package strategy

import "fmt"

// Thresholds collects every numeric knob used by the classifiers.
// Tests and config override individual fields; DefaultThresholds holds the production values.
type Thresholds struct {
	// Zones
	ZoneMinBars       int     `yaml:"zone_min_bars"`
	ZoneMinDistinct   int     `yaml:"zone_min_distinct"`
	ZoneGridPoints    int     `yaml:"zone_grid_points"`
	ZoneMinProminence float64 `yaml:"zone_min_prominence"`
	ZoneMaxCount      int     `yaml:"zone_max_count"`
	ZoneReferenceCV   float64 `yaml:"zone_reference_cv"`
	ZoneBandwidthMin  float64 `yaml:"zone_bandwidth_min"`
	ZoneBandwidthMax  float64 `yaml:"zone_bandwidth_max"`

	// Relative strength
	RSWindow           int     `yaml:"rs_window"`
	RSBlueDotTolerance float64 `yaml:"rs_blue_dot_tolerance"`
	ReturnLookback     int     `yaml:"return_lookback"`

	// Indicators
	EMAShort     int `yaml:"ema_short"`
	EMAMedium    int `yaml:"ema_medium"`
	SMALong      int `yaml:"sma_long"`
	VolumeAvg    int `yaml:"volume_avg"`
	ATRPeriod    int `yaml:"atr_period"`
	CCIPeriod    int `yaml:"cci_period"`
	RecentLowLen int `yaml:"recent_low_len"`
	MinBars      int `yaml:"min_bars"`

	// Risk
	EntryBuffer    float64 `yaml:"entry_buffer"`
	ATRStopMult    float64 `yaml:"atr_stop_mult"`
	RewardRisk     float64 `yaml:"reward_risk"`
	MaxRiskPercent float64 `yaml:"max_risk_percent"`

	// Breakout: dry-up
	DryUpProximity  float64 `yaml:"dry_up_proximity"`
	TRShortLen      int     `yaml:"tr_short_len"`
	TRLongLen       int     `yaml:"tr_long_len"`
	UShapeLen       int     `yaml:"u_shape_len"`
	UShapeMinCurve  float64 `yaml:"u_shape_min_curve"`
	DryUpVolumeDays int     `yaml:"dry_up_volume_days"`
	// Breakout: confirmed
	ConfirmedMinPct  float64 `yaml:"confirmed_min_pct"`
	ConfirmedMaxPct  float64 `yaml:"confirmed_max_pct"`
	ConfirmedVolMult float64 `yaml:"confirmed_vol_mult"`
	// Breakout: trendline
	TrendlineLookback int     `yaml:"trendline_lookback"`
	SwingOrder        int     `yaml:"swing_order"`
	MinSwingHighs     int     `yaml:"min_swing_highs"`
	TrendlineVolMult  float64 `yaml:"trendline_vol_mult"`
	// Breakout: horizontal
	HorizontalMinPct  float64 `yaml:"horizontal_min_pct"`
	HorizontalMaxPct  float64 `yaml:"horizontal_max_pct"`
	HorizontalVolMult float64 `yaml:"horizontal_vol_mult"`
	// Breakout: RS lead
	RSLeadProximity float64 `yaml:"rs_lead_proximity"`

	// Pullback
	StrictEMABuffer   float64 `yaml:"strict_ema_buffer"`
	RelaxedEMABuffer  float64 `yaml:"relaxed_ema_buffer"`
	RelaxedVolumeDays int     `yaml:"relaxed_volume_days"`

	// Base: cup & handle
	CupMinBars        int     `yaml:"cup_min_bars"`
	CupMaxBars        int     `yaml:"cup_max_bars"`
	CupMinDepth       float64 `yaml:"cup_min_depth"`
	CupMaxDepth       float64 `yaml:"cup_max_depth"`
	CupRimTolerance   float64 `yaml:"cup_rim_tolerance"`
	CupMinLength      int     `yaml:"cup_min_length"`
	HandleMinBars     int     `yaml:"handle_min_bars"`
	HandleMaxBars     int     `yaml:"handle_max_bars"`
	HandleMinPullback float64 `yaml:"handle_min_pullback"`
	HandleMaxPullback float64 `yaml:"handle_max_pullback"`
	// Base: flat base
	FlatMinBars     int     `yaml:"flat_min_bars"`
	FlatMaxBars     int     `yaml:"flat_max_bars"`
	FlatMaxDepth    float64 `yaml:"flat_max_depth"`
	FlatUpperRange  float64 `yaml:"flat_upper_range"`
	FlatVolumeShort int     `yaml:"flat_volume_short"`
	FlatVolumeRatio float64 `yaml:"flat_volume_ratio"`
	// Base: signal and quality
	PivotProximity   float64 `yaml:"pivot_proximity"`
	BaseBreakVolMult float64 `yaml:"base_break_vol_mult"`
	QualityRSFull    float64 `yaml:"quality_rs_full"`
	QualityTightFull float64 `yaml:"quality_tight_full"`
	BaseMinQuality   float64 `yaml:"base_min_quality"`

	// Regime
	RegimeEMA int `yaml:"regime_ema"`
}

// DefaultThresholds returns the production threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ZoneMinBars:       60,
		ZoneMinDistinct:   5,
		ZoneGridPoints:    600,
		ZoneMinProminence: 0.05,
		ZoneMaxCount:      6,
		ZoneReferenceCV:   0.10,
		ZoneBandwidthMin:  0.5,
		ZoneBandwidthMax:  2.0,

		RSWindow:           252,
		RSBlueDotTolerance: 0.005,
		ReturnLookback:     63,

		EMAShort:     8,
		EMAMedium:    20,
		SMALong:      50,
		VolumeAvg:    50,
		ATRPeriod:    14,
		CCIPeriod:    20,
		RecentLowLen: 3,
		MinBars:      60,

		EntryBuffer:    0.001,
		ATRStopMult:    0.2,
		RewardRisk:     2.0,
		MaxRiskPercent: 0.15,

		DryUpProximity:  0.05,
		TRShortLen:      5,
		TRLongLen:       20,
		UShapeLen:       15,
		UShapeMinCurve:  0.005,
		DryUpVolumeDays: 3,

		ConfirmedMinPct:  0.005,
		ConfirmedMaxPct:  0.03,
		ConfirmedVolMult: 1.5,

		TrendlineLookback: 60,
		SwingOrder:        3,
		MinSwingHighs:     3,
		TrendlineVolMult:  1.2,

		HorizontalMinPct:  0.001,
		HorizontalMaxPct:  0.025,
		HorizontalVolMult: 1.15,

		RSLeadProximity: 0.03,

		StrictEMABuffer:   0.005,
		RelaxedEMABuffer:  0.008,
		RelaxedVolumeDays: 3,

		CupMinBars:        30,
		CupMaxBars:        120,
		CupMinDepth:       0.12,
		CupMaxDepth:       0.35,
		CupRimTolerance:   0.10,
		CupMinLength:      20,
		HandleMinBars:     5,
		HandleMaxBars:     25,
		HandleMinPullback: 0.05,
		HandleMaxPullback: 0.15,

		FlatMinBars:     25,
		FlatMaxBars:     60,
		FlatMaxDepth:    0.15,
		FlatUpperRange:  0.75,
		FlatVolumeShort: 10,
		FlatVolumeRatio: 0.85,

		PivotProximity:   0.015,
		BaseBreakVolMult: 1.2,
		QualityRSFull:    0.05,
		QualityTightFull: 0.08,
		BaseMinQuality:   25,

		RegimeEMA: 20,
	}
}

// Validate rejects threshold sets that would make the classifiers meaningless.
func (th Thresholds) Validate() error {
	positive := map[string]int{
		"zone_min_bars": th.ZoneMinBars, "zone_grid_points": th.ZoneGridPoints,
		"rs_window": th.RSWindow, "ema_short": th.EMAShort, "ema_medium": th.EMAMedium,
		"sma_long": th.SMALong, "volume_avg": th.VolumeAvg, "atr_period": th.ATRPeriod,
		"cci_period": th.CCIPeriod, "min_bars": th.MinBars, "regime_ema": th.RegimeEMA,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("strategy.%s must be positive", name)
		}
	}
	if th.EMAShort >= th.EMAMedium {
		return fmt.Errorf("strategy.ema_short (%d) must be below ema_medium (%d)", th.EMAShort, th.EMAMedium)
	}
	if th.MaxRiskPercent <= 0 || th.MaxRiskPercent >= 1 {
		return fmt.Errorf("strategy.max_risk_percent must be in (0, 1)")
	}
	if th.RewardRisk <= 0 {
		return fmt.Errorf("strategy.reward_risk must be positive")
	}
	if th.CupMinDepth >= th.CupMaxDepth {
		return fmt.Errorf("strategy.cup_min_depth must be below cup_max_depth")
	}
	if th.FlatMinBars > th.FlatMaxBars || th.CupMinBars > th.CupMaxBars {
		return fmt.Errorf("strategy base bar ranges are inverted")
	}
	return nil
}
