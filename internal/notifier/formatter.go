package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"SwingScanner/internal/model"
)

// HotSectorMin is the setup count at which a sector gets the 🔥 marker.
const HotSectorMin = 3

// maxListed caps how many setups per type are listed in one report.
const maxListed = 15

// FormatScanReport formats a finished scan into a Telegram message.
func FormatScanReport(res *model.ScanResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Swing Scan</b> | %s\n\n", res.Timestamp.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("%s Market: <b>%s</b>\n", regimeIcon(res.Regime), html.EscapeString(res.Regime.String())))
	if res.Regime.BenchmarkClose > 0 {
		b.WriteString(fmt.Sprintf("Benchmark %.2f vs EMA %.2f\n", res.Regime.BenchmarkClose, res.Regime.BenchmarkEMA))
	}
	b.WriteString(fmt.Sprintf("Scanned %d/%d | failed %d | %s\n\n",
		res.Scanned, res.Tickers, res.Failed, res.Duration.Round(time.Second)))

	b.WriteString(fmt.Sprintf("VCP: %d | Pullback: %d | Base: %d\n",
		res.CountByType(model.SetupVCP), res.CountByType(model.SetupPullback), res.CountByType(model.SetupBase)))

	for _, kind := range []model.SetupType{model.SetupVCP, model.SetupPullback, model.SetupBase} {
		writeSetups(&b, res.Setups, kind)
	}

	if len(res.Sectors) > 0 {
		b.WriteString("\n🏭 <b>Sectors</b>\n")
		writeSectors(&b, res.Sectors)
	}
	if len(res.Setups) == 0 {
		b.WriteString("\nNo setups today.\n")
	}
	return b.String()
}

func writeSetups(b *strings.Builder, setups []model.Setup, kind model.SetupType) {
	var listed, total int
	for i := range setups {
		s := &setups[i]
		if s.SetupType != kind {
			continue
		}
		total++
		if listed >= maxListed {
			continue
		}
		if listed == 0 {
			b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", kind))
		}
		listed++
		b.WriteString(fmt.Sprintf("• <b>%s</b> %s | E %.2f SL %.2f TP %.2f R:R %.2f\n",
			html.EscapeString(s.Ticker), setupTag(s), s.Entry, s.StopLoss, s.TakeProfit, s.RiskReward))
	}
	if total > listed {
		b.WriteString(fmt.Sprintf("  … and %d more\n", total-listed))
	}
}

func setupTag(s *model.Setup) string {
	switch {
	case s.Breakout != nil:
		tag := string(s.Breakout.Path)
		if s.Breakout.IsBlueDot {
			tag += " 🔵"
		}
		return "[" + tag + "]"
	case s.Pullback != nil:
		if s.Pullback.IsRelaxed {
			return "[relaxed]"
		}
		return "[strict]"
	case s.Base != nil:
		return fmt.Sprintf("[%s %s Q%.0f]", s.Base.Pattern, s.Base.Signal, s.Base.QualityScore)
	}
	return ""
}

func writeSectors(b *strings.Builder, sectors []model.SectorRollup) {
	for _, sr := range sectors {
		marker := ""
		if sr.Count >= HotSectorMin {
			marker = " 🔥"
		}
		b.WriteString(fmt.Sprintf("  %s: %d%s\n", html.EscapeString(sr.Sector), sr.Count, marker))
	}
}

func regimeIcon(r model.MarketRegime) string {
	switch r.Label {
	case model.RegimeBullish:
		return "🟢"
	case model.RegimeBearish:
		return "🔴"
	}
	return "⚠️"
}

// FormatSectors formats the sector summary of the last scan.
func FormatSectors(res *model.ScanResult) string {
	if res == nil {
		return "No scan has completed yet."
	}
	if len(res.Sectors) == 0 {
		return fmt.Sprintf("🏭 <b>Sectors</b> | %s\n\nNo setups.", res.Timestamp.Format("2006-01-02"))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏭 <b>Sectors</b> | %s\n\n", res.Timestamp.Format("2006-01-02")))
	writeSectors(&b, res.Sectors)
	return b.String()
}

// FormatStatus formats the scan status for display.
func FormatStatus(st model.ScanStatus) string {
	var b strings.Builder
	b.WriteString("📦 <b>Scanner status</b>\n\n")
	if st.InProgress {
		pct := 0.0
		if st.Total > 0 {
			pct = float64(st.Progress) / float64(st.Total) * 100
		}
		b.WriteString(fmt.Sprintf("Scanning: %d/%d (%.0f%%)\n", st.Progress, st.Total, pct))
		b.WriteString(fmt.Sprintf("Started: %s\n", st.StartedAt.Format("2006-01-02 15:04")))
	} else {
		b.WriteString("Idle\n")
	}
	if !st.LastCompleted.IsZero() {
		b.WriteString(fmt.Sprintf("Last scan: %s (%d setups)\n", st.LastCompleted.Format("2006-01-02 15:04"), st.LastSetups))
	}
	if st.LastError != "" {
		b.WriteString(fmt.Sprintf("Last error: %s\n", html.EscapeString(st.LastError)))
	}
	return b.String()
}

// FormatError formats a failed scan alert.
func FormatError(what string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s failed</b>\n%s", html.EscapeString(what), html.EscapeString(err.Error()))
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>Commands</b>\n" +
		"/scan - run a scan now\n" +
		"/status - scan progress and last result\n" +
		"/sectors - sector summary of the last scan\n" +
		"/help - this message"
}
