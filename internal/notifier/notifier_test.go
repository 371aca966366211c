package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"SwingScanner/internal/model"
)

func sampleScan() *model.ScanResult {
	ts := time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC)
	return &model.ScanResult{
		Timestamp: ts,
		Regime:    model.MarketRegime{IsBullish: true, BenchmarkClose: 530.1, BenchmarkEMA: 520.4, Label: model.RegimeBullish},
		Tickers:   10,
		Scanned:   9,
		Failed:    1,
		Duration:  2500 * time.Millisecond,
		Setups: []model.Setup{
			{Ticker: "AAPL", SetupType: model.SetupVCP, Entry: 101.6, StopLoss: 96.3, TakeProfit: 112.2, RiskReward: 2,
				Breakout: &model.BreakoutDetail{Path: model.PathConfirmed, IsBlueDot: true}},
			{Ticker: "MSFT", SetupType: model.SetupPullback, Entry: 93.56, StopLoss: 92.1, TakeProfit: 96.48, RiskReward: 2,
				Pullback: &model.PullbackDetail{IsRelaxed: true}},
			{Ticker: "NVDA", SetupType: model.SetupBase, Entry: 99.1, StopLoss: 94, TakeProfit: 109.3, RiskReward: 2,
				Base: &model.BaseDetail{Pattern: model.PatternFlatBase, Signal: model.SignalDry, QualityScore: 61.1}},
		},
		Sectors: []model.SectorRollup{{Sector: "Technology", Count: 3}, {Sector: "R&D", Count: 1}},
	}
}

func TestFormatScanReport(t *testing.T) {
	msg := FormatScanReport(sampleScan())
	for _, want := range []string{
		"2024-06-03 21:00",
		"🟢 Market: <b>BULLISH</b>",
		"Scanned 9/10 | failed 1",
		"VCP: 1 | Pullback: 1 | Base: 1",
		"<b>AAPL</b> [CONFIRMED 🔵] | E 101.60 SL 96.30 TP 112.20 R:R 2.00",
		"<b>MSFT</b> [relaxed]",
		"[FLAT_BASE DRY Q61]",
		"Technology: 3 🔥",
		"R&amp;D: 1\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatScanReport_ErrorRegimeNoSetups(t *testing.T) {
	res := &model.ScanResult{Regime: model.MarketRegime{Label: model.RegimeError, Detail: "no data"}}
	msg := FormatScanReport(res)
	if !strings.Contains(msg, "⚠️ Market: <b>ERROR: no data</b>") || !strings.Contains(msg, "No setups today.") {
		t.Errorf("unexpected report:\n%s", msg)
	}
}

func TestFormatScanReport_TruncatesLongLists(t *testing.T) {
	res := &model.ScanResult{}
	for i := 0; i < maxListed+4; i++ {
		res.Setups = append(res.Setups, model.Setup{Ticker: "T", SetupType: model.SetupPullback})
	}
	if msg := FormatScanReport(res); !strings.Contains(msg, "… and 4 more") {
		t.Errorf("expected truncation note:\n%s", msg)
	}
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name string
		st   model.ScanStatus
		want []string
	}{
		{"running", model.ScanStatus{InProgress: true, Progress: 50, Total: 200}, []string{"Scanning: 50/200 (25%)"}},
		{"idle with error", model.ScanStatus{LastError: "record scan: <locked>"}, []string{"Idle", "Last error: record scan: &lt;locked&gt;"}},
		{"completed", model.ScanStatus{LastCompleted: time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC), LastSetups: 7},
			[]string{"Last scan: 2024-06-03 21:00 (7 setups)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := FormatStatus(tt.st)
			for _, w := range tt.want {
				if !strings.Contains(msg, w) {
					t.Errorf("missing %q in:\n%s", w, msg)
				}
			}
		})
	}
}

func TestFormatSectors(t *testing.T) {
	if msg := FormatSectors(nil); msg != "No scan has completed yet." {
		t.Errorf("FormatSectors(nil) = %q", msg)
	}
	if msg := FormatSectors(sampleScan()); !strings.Contains(msg, "Technology: 3 🔥") {
		t.Errorf("unexpected sectors:\n%s", msg)
	}
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("line\n", 10)
	parts := splitMessage(text, 12)
	if got := strings.Join(parts, "\n"); got != text {
		t.Errorf("split lost content: %q", parts)
	}
	for _, p := range parts {
		if len(p) > 12 {
			t.Errorf("part too long: %q", p)
		}
	}
	if got := splitMessage("short", 12); len(got) != 1 || got[0] != "short" {
		t.Errorf("splitMessage(short) = %q", got)
	}
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottoken/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		if payload["chat_id"] != "42" || payload["parse_mode"] != "HTML" {
			t.Errorf("payload = %v", payload)
		}
		if calls.Add(1) == 1 {
			http.Error(w, "try later", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 1); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestTelegramNotifier_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	err := n.SendWithRetry(context.Background(), "hello", 0)
	if err == nil || !strings.Contains(err.Error(), "all 1 retries exhausted") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestTelegramNotifier_StartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") == "0" {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /status ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/scan","chat":{"id":99}}}]}`))
				return
			}
			<-r.Context().Done()
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			replies <- payload["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	var handled []string
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(cmd string) string {
			handled = append(handled, cmd)
			return "ok " + cmd
		})
		close(done)
	}()

	select {
	case got := <-replies:
		if got != "ok /status" {
			t.Errorf("reply = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done
	if len(handled) != 1 {
		t.Errorf("expected only the configured chat's command, got %v", handled)
	}
}

func TestFormatError(t *testing.T) {
	got := FormatError("scan", errors.New("record scan: x<y"))
	if got != "⚠️ <b>scan failed</b>\nrecord scan: x&lt;y" {
		t.Errorf("FormatError = %q", got)
	}
}
