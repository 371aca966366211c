package strategy

import "SwingScanner/internal/calculator"

// riskLevels is the shared entry/stop/target math of every classifier.
type riskLevels struct {
	entry, stop, target, rr float64
}

// buildRisk places entry a hair above reference and the stop an ATR
// fraction under stopBase, with a fixed reward multiple. ok is false when
// the risk is non-positive or wider than MaxRiskPercent of entry.
func (th Thresholds) buildRisk(reference, stopBase, atr float64) (riskLevels, bool) {
	if calculator.AnyNaN(reference, stopBase, atr) {
		return riskLevels{}, false
	}
	entry := calculator.RoundPrice(reference * (1 + th.EntryBuffer))
	stop := calculator.RoundPrice(stopBase - th.ATRStopMult*atr)
	risk := entry - stop
	if risk <= 0 || risk > th.MaxRiskPercent*entry {
		return riskLevels{}, false
	}
	target := calculator.RoundPrice(entry + th.RewardRisk*risk)
	if target <= entry {
		return riskLevels{}, false
	}
	return riskLevels{
		entry:  entry,
		stop:   stop,
		target: target,
		rr:     calculator.RoundTo((target-entry)/(entry-stop), 2),
	}, true
}
