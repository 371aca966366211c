package model

// ZoneType tells whether a zone sits below or above the current price.
type ZoneType string

const (
	ZoneSupport    ZoneType = "SUPPORT"
	ZoneResistance ZoneType = "RESISTANCE"
)

// Zone is a horizontal price band around a density peak.
// Lower <= Level <= Upper always holds.
type Zone struct {
	Type  ZoneType `json:"type" db:"zone_type"`
	Level float64  `json:"level" db:"level"`
	Upper float64  `json:"upper" db:"upper"`
	Lower float64  `json:"lower" db:"lower"`
}

// Contains reports whether price lies inside the band.
func (z Zone) Contains(price float64) bool {
	return price >= z.Lower && price <= z.Upper
}

// RSContext is the ticker/benchmark ratio line summary over the trailing year.
type RSContext struct {
	RatioToday   float64 `json:"ratio_today"`
	Ratio52wHigh float64 `json:"ratio_52w_high"`
	IsBlueDot    bool    `json:"is_blue_dot"`
}
