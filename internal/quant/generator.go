package quant

import (
	"fmt"
	"math"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/breaker"
	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/logger"
)

// Consensus strength feeding the confidence score. The dip nudge is a
// deliberately weaker signal than any window consensus.
const (
	strengthStrong = 1.0
	strengthWeak   = 0.5
	strengthDip    = 0.25
)

// Generator derives the rule-based signal from an indicator snapshot.
// Pure per-call: no state survives between runs.
// ⭐ SSOT: 퀀트 시그널 판정은 여기서만
type Generator struct {
	cfg    *assetprofile.Config
	logger *logger.Logger
}

func NewGenerator(cfg *assetprofile.Config, log *logger.Logger) *Generator {
	return &Generator{cfg: cfg, logger: log}
}

// Generate produces the quant signal for one instrument. brk is the
// circuit-breaker verdict for the same run; a tripped breaker
// suppresses everything else.
//
// Confidence is a monotonic quality score in [0,1], not a probability:
// 0.6 x consensus strength + 0.4 x normalized distance past the band,
// damped by history coverage.
func (g *Generator) Generate(code string, snap contracts.IndicatorSnapshot, class assetprofile.AssetClass, brk breaker.Result) contracts.QuantSignal {
	profile := g.cfg.Profile(class)

	if brk.Tripped {
		return contracts.QuantSignal{
			Action:     contracts.Hold,
			Confidence: g.cfg.Synthesis.SuppressedConfidence,
			Consensus:  contracts.ConsensusMixed,
			Reason:     "circuit-breaker: " + brk.Reason,
			Suppressed: true,
		}
	}

	// Volatility widens the neutral zone so choppy instruments need a
	// more extreme percentile to act
	widen := math.Min(snap.Volatility*profile.VolBandScale, profile.VolBandMaxPts)
	effLow := math.Max(0, profile.ConsensusLow-widen)
	effHigh := math.Min(100, profile.ConsensusHigh+widen)

	percentiles := []float64{snap.PercentileShort, snap.PercentileMid, snap.PercentileLong}
	var below, above int
	var sum float64
	for _, p := range percentiles {
		sum += p
		if p < effLow {
			below++
		}
		if p > effHigh {
			above++
		}
	}
	avg := sum / 3.0

	signal := g.classify(below, above, avg, effLow, effHigh, snap, profile)
	signal.Confidence = clamp01(signal.Confidence * snap.Coverage)

	// Defensive override: a drawdown past the class limit forces Hold
	// whatever the windows say
	if snap.MaxDrawdown <= profile.DrawdownLimit && signal.Action != contracts.Hold {
		signal = contracts.QuantSignal{
			Action:     contracts.Hold,
			Confidence: clamp01(0.5 * snap.Coverage),
			Consensus:  signal.Consensus,
			Reason: fmt.Sprintf("drawdown %.1f%% past class limit %.1f%%, overriding %s",
				snap.MaxDrawdown*100, profile.DrawdownLimit*100, signal.Action),
		}
	}

	g.logger.WithFields(map[string]interface{}{
		"code":       code,
		"action":     signal.Action,
		"confidence": signal.Confidence,
		"consensus":  signal.Consensus,
		"eff_low":    effLow,
		"eff_high":   effHigh,
	}).Debug("Generated quant signal")

	return signal
}

// classify maps window consensus to a directional signal, with the
// MA-deviation dip nudge inside the neutral zone
func (g *Generator) classify(below, above int, avg, effLow, effHigh float64, snap contracts.IndicatorSnapshot, profile assetprofile.Profile) contracts.QuantSignal {
	switch {
	case below == 3:
		return contracts.QuantSignal{
			Action:     contracts.Buy,
			Confidence: score(strengthStrong, cheapDistance(avg, effLow)),
			Consensus:  contracts.ConsensusStrongCheap,
			Reason:     fmt.Sprintf("all 3 windows below %.1f (avg percentile %.1f)", effLow, avg),
		}
	case below == 2:
		return contracts.QuantSignal{
			Action:     contracts.Buy,
			Confidence: score(strengthWeak, cheapDistance(avg, effLow)),
			Consensus:  contracts.ConsensusWeakCheap,
			Reason:     fmt.Sprintf("2 of 3 windows below %.1f (avg percentile %.1f)", effLow, avg),
		}
	case above == 3:
		return contracts.QuantSignal{
			Action:     contracts.Sell,
			Confidence: score(strengthStrong, expensiveDistance(avg, effHigh)),
			Consensus:  contracts.ConsensusStrongExpensive,
			Reason:     fmt.Sprintf("all 3 windows above %.1f (avg percentile %.1f)", effHigh, avg),
		}
	case above == 2:
		return contracts.QuantSignal{
			Action:     contracts.Sell,
			Confidence: score(strengthWeak, expensiveDistance(avg, effHigh)),
			Consensus:  contracts.ConsensusWeakExpensive,
			Reason:     fmt.Sprintf("2 of 3 windows above %.1f (avg percentile %.1f)", effHigh, avg),
		}
	}

	// Neutral zone: the MA deviation decides buy-on-dip vs plain Hold.
	// The threshold deepens with volatility so a routine wobble on a
	// choppy instrument does not read as a dip.
	dynThreshold := profile.MABaseThreshold - clamp(snap.Volatility/10, 0.003, 0.05)
	if snap.MADeviation <= dynThreshold {
		depth := clamp01((dynThreshold - snap.MADeviation) / math.Abs(dynThreshold))
		return contracts.QuantSignal{
			Action:     contracts.Buy,
			Confidence: score(strengthDip, depth),
			Consensus:  contracts.ConsensusMixed,
			Reason: fmt.Sprintf("dip: MA deviation %.2f%% past dynamic threshold %.2f%%",
				snap.MADeviation*100, dynThreshold*100),
		}
	}

	return contracts.QuantSignal{
		Action:     contracts.Hold,
		Confidence: 0.30,
		Consensus:  contracts.ConsensusMixed,
		Reason:     fmt.Sprintf("mixed consensus (avg percentile %.1f in [%.1f, %.1f])", avg, effLow, effHigh),
	}
}

// score combines consensus strength and band distance
func score(strength, distance float64) float64 {
	return clamp01(0.6*strength + 0.4*distance)
}

// cheapDistance normalizes how far below the band the average sits
func cheapDistance(avg, effLow float64) float64 {
	if effLow <= 0 {
		return 0
	}
	return clamp01((effLow - avg) / effLow)
}

// expensiveDistance normalizes how far above the band the average sits
func expensiveDistance(avg, effHigh float64) float64 {
	if effHigh >= 100 {
		return 0
	}
	return clamp01((avg - effHigh) / (100 - effHigh))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
