// Package universe loads the list of tickers to scan and their sectors.
package universe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/montanaflynn/stats"

	"SwingScanner/internal/model"
)

// UnknownSector is reported for tickers missing from the sector map.
const UnknownSector = "Unknown"

// ErrNotFound is returned by Load when the universe file does not exist.
var ErrNotFound = errors.New("universe file not found")

// DefaultExcludes drops warrants, preferreds, rights and units.
var DefaultExcludes = []string{
	"?*W",      // warrants, single-letter W is a real ticker
	"?*WS",     // warrants
	"*-P",      // preferred
	"*-P[A-Z]", // preferred series
	"*-R",      // rights
	"*-RT",     // rights
	"*-U",      // units
}

// KnownETFs are removed from the universe regardless of sector data.
var KnownETFs = map[string]bool{
	"SPY": true, "QQQ": true, "IWM": true, "DIA": true, "VOO": true, "VTI": true, "IVV": true,
	"VEA": true, "VWO": true, "EFA": true, "AGG": true, "BND": true, "TLT": true, "GLD": true,
	"SLV": true, "USO": true, "XLF": true, "XLK": true, "XLE": true, "XLV": true, "XLY": true,
	"XLP": true, "XLI": true, "XLB": true, "XLRE": true, "XLU": true, "XLC": true, "ARKK": true,
	"ARKW": true, "ARKF": true, "ARKG": true, "ARKQ": true, "SQQQ": true, "TQQQ": true,
	"SPXU": true, "SOXL": true, "SOXS": true, "UVXY": true, "SVXY": true, "VXX": true,
	"VIXY": true, "HYG": true, "LQD": true, "IEMG": true, "EEM": true,
}

const maxBaseLen = 5

// Universe is the persisted {tickers, sectors} document.
type Universe struct {
	Tickers []string          `json:"tickers"`
	Sectors map[string]string `json:"sectors"`
}

// Load reads a universe file and normalises its tickers.
func Load(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read universe: %w", err)
	}
	var u Universe
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parse universe %s: %w", path, err)
	}
	if u.Sectors == nil {
		u.Sectors = make(map[string]string)
	}
	sectors := make(map[string]string, len(u.Sectors))
	for t, s := range u.Sectors {
		sectors[Normalize(t)] = s
	}
	u.Sectors = sectors
	return &u, nil
}

// Save writes the universe as indented JSON, creating parent directories.
func (u *Universe) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create universe dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal universe: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Sector returns the sector of ticker, or UnknownSector.
func (u *Universe) Sector(ticker string) string {
	if u == nil {
		return UnknownSector
	}
	if s, ok := u.Sectors[Normalize(ticker)]; ok && s != "" {
		return s
	}
	return UnknownSector
}

// Filtered returns the universe tickers after pattern filtering.
func (u *Universe) Filtered(extra []string) ([]string, error) {
	return Filter(u.Tickers, extra)
}

// Normalize upper-cases a ticker and turns share-class dots into dashes.
func Normalize(ticker string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), ".", "-")
}

// Filter normalises tickers and removes ETFs, excluded patterns, long
// symbols and duplicates, preserving input order.
func Filter(tickers []string, extra []string) ([]string, error) {
	patterns := append(append([]string{}, DefaultExcludes...), extra...)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, raw := range tickers {
		t := Normalize(raw)
		if t == "" || seen[t] || KnownETFs[t] {
			continue
		}
		if len(strings.ReplaceAll(t, "-", "")) > maxBaseLen {
			continue
		}
		if excluded(t, patterns) {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

func excluded(ticker string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, ticker); ok {
			return true
		}
	}
	return false
}

// Liquid reports whether the last close is at least minPrice and the mean
// volume of the last 50 bars is at least minAvgVolume.
func Liquid(bars []model.OHLCV, minPrice, minAvgVolume float64) bool {
	if len(bars) == 0 {
		return false
	}
	if bars[len(bars)-1].Close < minPrice {
		return false
	}
	start := len(bars) - 50
	if start < 0 {
		start = 0
	}
	vols := make([]float64, 0, len(bars)-start)
	for _, b := range bars[start:] {
		vols = append(vols, b.Volume)
	}
	avg, err := stats.Mean(vols)
	if err != nil {
		return false
	}
	return avg >= minAvgVolume
}

// SectorCounts returns how many of tickers fall in each sector, largest first.
func (u *Universe) SectorCounts(tickers []string) []model.SectorRollup {
	counts := make(map[string]int)
	for _, t := range tickers {
		counts[u.Sector(t)]++
	}
	out := make([]model.SectorRollup, 0, len(counts))
	for s, n := range counts {
		out = append(out, model.SectorRollup{Sector: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}
