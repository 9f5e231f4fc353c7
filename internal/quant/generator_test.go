package quant

import (
	"math"
	"strings"
	"testing"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/breaker"
	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/logger"
)

func newGenerator() *Generator {
	return NewGenerator(assetprofile.Default(), logger.NewNop())
}

// snap builds a full-coverage snapshot with the given percentiles
func snap(short, mid, long float64) contracts.IndicatorSnapshot {
	return contracts.IndicatorSnapshot{
		PercentileShort: short,
		PercentileMid:   mid,
		PercentileLong:  long,
		Coverage:        1.0,
	}
}

func TestStrongCheapConsensus(t *testing.T) {
	g := newGenerator()

	// Gold band low 35, zero volatility: 5/8/10 all below
	s := snap(5, 8, 10)
	sig := g.Generate("518880", s, assetprofile.GoldETF, breaker.Result{})

	if sig.Action != contracts.Buy {
		t.Fatalf("Action = %v, want Buy", sig.Action)
	}
	if sig.Consensus != contracts.ConsensusStrongCheap {
		t.Errorf("Consensus = %v, want strong-cheap", sig.Consensus)
	}

	// 0.6*1.0 + 0.4*(35 - 7.667)/35 = 0.9124
	avg := (5.0 + 8.0 + 10.0) / 3.0
	want := 0.6 + 0.4*(35.0-avg)/35.0
	if math.Abs(sig.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", sig.Confidence, want)
	}
}

func TestWeakCheapConsensus(t *testing.T) {
	g := newGenerator()

	// 2 of 3 below the gold low band
	sig := g.Generate("518880", snap(10, 20, 50), assetprofile.GoldETF, breaker.Result{})

	if sig.Action != contracts.Buy {
		t.Fatalf("Action = %v, want Buy", sig.Action)
	}
	if sig.Consensus != contracts.ConsensusWeakCheap {
		t.Errorf("Consensus = %v, want weak-cheap", sig.Consensus)
	}
	// Weak strength halves the base term
	if sig.Confidence >= 0.7+1e-9 {
		t.Errorf("weak consensus confidence = %v, want <= 0.7", sig.Confidence)
	}
}

func TestStrongExpensiveConsensus(t *testing.T) {
	g := newGenerator()

	sig := g.Generate("518880", snap(95, 92, 90), assetprofile.GoldETF, breaker.Result{})

	if sig.Action != contracts.Sell {
		t.Fatalf("Action = %v, want Sell", sig.Action)
	}
	if sig.Consensus != contracts.ConsensusStrongExpensive {
		t.Errorf("Consensus = %v, want strong-expensive", sig.Consensus)
	}
}

func TestMixedConsensusHolds(t *testing.T) {
	g := newGenerator()

	sig := g.Generate("518880", snap(50, 48, 52), assetprofile.GoldETF, breaker.Result{})

	if sig.Action != contracts.Hold {
		t.Fatalf("Action = %v, want Hold", sig.Action)
	}
	if sig.Consensus != contracts.ConsensusMixed {
		t.Errorf("Consensus = %v, want mixed", sig.Consensus)
	}
}

func TestVolatilityWidensBands(t *testing.T) {
	g := newGenerator()

	// Percentile 32 is below gold's low band 35 at zero volatility
	calm := snap(32, 32, 32)
	if sig := g.Generate("518880", calm, assetprofile.GoldETF, breaker.Result{}); sig.Action != contracts.Buy {
		t.Fatalf("calm instrument at 32: Action = %v, want Buy", sig.Action)
	}

	// 40% volatility widens the band by 10 points: 32 is neutral now
	choppy := snap(32, 32, 32)
	choppy.Volatility = 0.40
	if sig := g.Generate("518880", choppy, assetprofile.GoldETF, breaker.Result{}); sig.Action != contracts.Hold {
		t.Errorf("choppy instrument at 32: Action = %v, want Hold", sig.Action)
	}
}

func TestVolatilityWideningCapped(t *testing.T) {
	g := newGenerator()

	// Gold caps widening at 15 points: effective low is never below 20
	extreme := snap(19, 19, 19)
	extreme.Volatility = 5.0 // would widen 125 points uncapped
	sig := g.Generate("518880", extreme, assetprofile.GoldETF, breaker.Result{})
	if sig.Action != contracts.Buy {
		t.Errorf("percentile 19 under capped band 20: Action = %v, want Buy", sig.Action)
	}
}

func TestDipNudgeInNeutralZone(t *testing.T) {
	g := newGenerator()

	// Mixed windows, but NAV sits 5% under its 60-day mean. Gold base
	// threshold -2.5% minus the volatility floor 0.3% gives -2.8%.
	s := snap(45, 50, 55)
	s.MADeviation = -0.05
	sig := g.Generate("518880", s, assetprofile.GoldETF, breaker.Result{})

	if sig.Action != contracts.Buy {
		t.Fatalf("Action = %v, want Buy (dip)", sig.Action)
	}
	if sig.Consensus != contracts.ConsensusMixed {
		t.Errorf("Consensus = %v, want mixed", sig.Consensus)
	}
	if !strings.Contains(sig.Reason, "dip") {
		t.Errorf("Reason = %q, want dip mention", sig.Reason)
	}
	// Dip nudge stays below weak-consensus confidence ceiling
	if sig.Confidence > 0.55+1e-9 {
		t.Errorf("dip confidence = %v, want <= 0.55", sig.Confidence)
	}
}

func TestDipThresholdDeepensWithVolatility(t *testing.T) {
	g := newGenerator()

	// -3% under the mean reads as a dip when calm...
	s := snap(45, 50, 55)
	s.MADeviation = -0.03
	if sig := g.Generate("518880", s, assetprofile.GoldETF, breaker.Result{}); sig.Action != contracts.Buy {
		t.Fatalf("calm dip: Action = %v, want Buy", sig.Action)
	}

	// ...but not on a choppy instrument (threshold -2.5% - 5% = -7.5%)
	s.Volatility = 0.60
	if sig := g.Generate("518880", s, assetprofile.GoldETF, breaker.Result{}); sig.Action != contracts.Hold {
		t.Errorf("choppy dip: Action = %v, want Hold", sig.Action)
	}
}

func TestDrawdownForcesHold(t *testing.T) {
	g := newGenerator()

	// Strong cheap consensus, but the short window fell 18%: gold's
	// limit is -15%
	s := snap(5, 8, 10)
	s.MaxDrawdown = -0.18
	sig := g.Generate("518880", s, assetprofile.GoldETF, breaker.Result{})

	if sig.Action != contracts.Hold {
		t.Fatalf("Action = %v, want Hold (drawdown override)", sig.Action)
	}
	if !strings.Contains(sig.Reason, "drawdown") {
		t.Errorf("Reason = %q, want drawdown mention", sig.Reason)
	}
	// Consensus observation survives the override
	if sig.Consensus != contracts.ConsensusStrongCheap {
		t.Errorf("Consensus = %v, want strong-cheap preserved", sig.Consensus)
	}
}

func TestDrawdownWithinLimitNoOverride(t *testing.T) {
	g := newGenerator()

	s := snap(5, 8, 10)
	s.MaxDrawdown = -0.10
	sig := g.Generate("518880", s, assetprofile.GoldETF, breaker.Result{})
	if sig.Action != contracts.Buy {
		t.Errorf("Action = %v, want Buy (drawdown within limit)", sig.Action)
	}
}

func TestSuppressedByBreaker(t *testing.T) {
	g := newGenerator()

	brk := breaker.Result{Tripped: true, Direction: "drop", Reason: "move -9.00% breached drop limit -8.00%"}
	sig := g.Generate("518880", snap(5, 8, 10), assetprofile.GoldETF, brk)

	if sig.Action != contracts.Hold {
		t.Fatalf("Action = %v, want Hold", sig.Action)
	}
	if !sig.Suppressed {
		t.Error("Suppressed must be true")
	}
	if sig.Confidence != 0.30 {
		t.Errorf("Confidence = %v, want fixed 0.30", sig.Confidence)
	}
	if !strings.Contains(sig.Reason, "circuit-breaker") {
		t.Errorf("Reason = %q, want circuit-breaker mention", sig.Reason)
	}
}

func TestCoverageDampsConfidence(t *testing.T) {
	g := newGenerator()

	full := snap(5, 8, 10)
	partial := snap(5, 8, 10)
	partial.Coverage = 0.5

	fullSig := g.Generate("518880", full, assetprofile.GoldETF, breaker.Result{})
	partialSig := g.Generate("518880", partial, assetprofile.GoldETF, breaker.Result{})

	if want := fullSig.Confidence * 0.5; math.Abs(partialSig.Confidence-want) > 1e-9 {
		t.Errorf("partial coverage confidence = %v, want %v", partialSig.Confidence, want)
	}
}

func TestBondBandsTighter(t *testing.T) {
	g := newGenerator()

	// Percentile 42 is neutral for gold (35/65) but cheap for pure bond (45/55)
	s := snap(42, 42, 42)
	if sig := g.Generate("000001", s, assetprofile.BondPure, breaker.Result{}); sig.Action != contracts.Buy {
		t.Errorf("bond at 42: Action = %v, want Buy", sig.Action)
	}
	if sig := g.Generate("518880", s, assetprofile.GoldETF, breaker.Result{}); sig.Action != contracts.Hold {
		t.Errorf("gold at 42: Action = %v, want Hold", sig.Action)
	}
}
