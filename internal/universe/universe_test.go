package universe

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"SwingScanner/internal/model"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		extra []string
		want  []string
	}{
		{"warrants", []string{"AAPL", "SPKEW", "ACAHW", "FOOWS"}, nil, []string{"AAPL"}},
		{"preferred", []string{"BAC", "BAC-PB", "WFC-PL", "XYZ-P", "JPM"}, nil, []string{"BAC", "JPM"}},
		{"long tickers", []string{"AAPL", "ABCDEF", "LONGTICKERZ"}, nil, []string{"AAPL"}},
		{"valid", []string{"A", "GE", "AMD", "NVDA", "BRK.B"}, nil, []string{"A", "GE", "AMD", "NVDA", "BRK-B"}},
		{"single letter W", []string{"W", "AAPL", "TESTW"}, nil, []string{"W", "AAPL"}},
		{"rights and units", []string{"AAPL", "FOO-R", "BAR-RT", "BAZ-U"}, nil, []string{"AAPL"}},
		{"etfs", []string{"SPY", "QQQ", "AAPL", "TQQQ", "MSFT"}, nil, []string{"AAPL", "MSFT"}},
		{"dedup and case", []string{"aapl", "AAPL", " msft "}, nil, []string{"AAPL", "MSFT"}},
		{"extra globs", []string{"AAPL", "ZZA", "ZZB", "MSFT"}, []string{"ZZ*"}, []string{"AAPL", "MSFT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(tt.in, tt.extra)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilter_InvalidPattern(t *testing.T) {
	if _, err := Filter([]string{"AAPL"}, []string{"[A-"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestLoadSaveAndSector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "universe.json")
	u := &Universe{
		Tickers: []string{"AAPL", "BRK.B", "SPY"},
		Sectors: map[string]string{"AAPL": "Technology", "BRK.B": "Financial Services"},
	}
	if err := u.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s := got.Sector("AAPL"); s != "Technology" {
		t.Errorf("Sector(AAPL) = %q", s)
	}
	if s := got.Sector("BRK-B"); s != "Financial Services" {
		t.Errorf("Sector(BRK-B) = %q", s)
	}
	if s := got.Sector("NVDA"); s != UnknownSector {
		t.Errorf("Sector(NVDA) = %q", s)
	}
	tickers, err := got.Filtered(nil)
	if err != nil {
		t.Fatalf("Filtered: %v", err)
	}
	if !reflect.DeepEqual(tickers, []string{"AAPL", "BRK-B"}) {
		t.Errorf("Filtered = %v", tickers)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNilUniverseSector(t *testing.T) {
	var u *Universe
	if s := u.Sector("AAPL"); s != UnknownSector {
		t.Errorf("Sector = %q", s)
	}
}

func TestLiquid(t *testing.T) {
	mk := func(closeLast, vol float64) []model.OHLCV {
		bars := make([]model.OHLCV, 60)
		for i := range bars {
			bars[i] = model.OHLCV{Time: time.Now().AddDate(0, 0, i-60), Close: 20, Volume: vol}
		}
		bars[59].Close = closeLast
		return bars
	}
	tests := []struct {
		name string
		bars []model.OHLCV
		want bool
	}{
		{"passes", mk(20, 600000), true},
		{"cheap", mk(9.99, 600000), false},
		{"thin", mk(20, 400000), false},
		{"exact", mk(10, 500000), true},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Liquid(tt.bars, 10, 500000); got != tt.want {
				t.Errorf("Liquid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSectorCounts(t *testing.T) {
	u := &Universe{Sectors: map[string]string{"A": "Tech", "B": "Tech", "C": "Energy"}}
	got := u.SectorCounts([]string{"A", "B", "C", "D"})
	want := []model.SectorRollup{{Sector: "Tech", Count: 2}, {Sector: "Energy", Count: 1}, {Sector: "Unknown", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SectorCounts = %v, want %v", got, want)
	}
}
