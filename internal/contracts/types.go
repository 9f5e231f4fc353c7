package contracts

import (
	"time"
)

// Action is the directional guidance for one instrument
// ⭐ SSOT: 매수/매도/관망 액션 타입은 여기서만 정의
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

// Valid reports whether the action belongs to the closed set
func (a Action) Valid() bool {
	switch a {
	case Buy, Sell, Hold:
		return true
	}
	return false
}

// PricePoint is one observation of a fund's net asset value
type PricePoint struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"nav"`
}

// PriceSeries is a chronological NAV history snapshot for one
// instrument. Oldest first, latest last. The engine never mutates it.
type PriceSeries []PricePoint

// Latest returns the most recent observation
func (s PriceSeries) Latest() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Values returns the NAV values in chronological order
func (s PriceSeries) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.NAV
	}
	return values
}

// Tail returns the trailing n observations (all of them when n exceeds
// the series length)
func (s PriceSeries) Tail(n int) PriceSeries {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// IndicatorSnapshot holds the derived indicators for one run.
// Ephemeral: recomputed every run, never persisted.
type IndicatorSnapshot struct {
	// Percentile rank of the latest NAV within each trailing window (0-100)
	PercentileShort float64 `json:"percentile_short"`
	PercentileMid   float64 `json:"percentile_mid"`
	PercentileLong  float64 `json:"percentile_long"`

	// Deviation of the latest NAV from the trailing MA window mean,
	// as a fraction (-0.02 = 2% below the mean)
	MADeviation float64 `json:"ma_deviation"`

	// Annualized volatility of daily returns, as a fraction (>= 0)
	Volatility float64 `json:"volatility"`

	// Largest peak-to-trough decline within the short window, as a
	// negative fraction (0 when the window never declined)
	MaxDrawdown float64 `json:"max_drawdown"`

	// Latest intraday/period move in percent (e.g. -2.5)
	DailyChangePct float64 `json:"daily_change_pct"`

	// Observations available relative to the long window, capped at 1.0.
	// Below 1.0 the quant signal runs best-effort with damped confidence.
	Coverage float64 `json:"coverage"`

	// Window lengths the snapshot was computed with
	Windows Windows `json:"windows"`
}

// Windows holds the indicator window lengths
type Windows struct {
	Short int `json:"short"`
	Mid   int `json:"mid"`
	Long  int `json:"long"`
	MA    int `json:"ma"`
}

// Consensus describes how the three percentile windows line up
type Consensus string

const (
	ConsensusStrongCheap     Consensus = "strong-cheap"     // all three below the low band
	ConsensusWeakCheap       Consensus = "weak-cheap"       // two of three below
	ConsensusStrongExpensive Consensus = "strong-expensive" // all three above the high band
	ConsensusWeakExpensive   Consensus = "weak-expensive"   // two of three above
	ConsensusMixed           Consensus = "mixed"
)

// QuantSignal is the rule-based track's output. Produced fresh each
// run, never persisted.
type QuantSignal struct {
	Action     Action    `json:"action"`
	Confidence float64   `json:"confidence"` // [0,1] quality score, not a probability
	Consensus  Consensus `json:"consensus"`
	Reason     string    `json:"reason"`
	Suppressed bool      `json:"suppressed"` // circuit breaker tripped
}

// AdvisoryVerdict is the external advisory track's output. The core
// treats it as opaque input data.
type AdvisoryVerdict struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"` // [0,1]
	Rationale  string  `json:"rationale"`
}

// SynthesisPath identifies which arbitration rule produced the final
// decision
type SynthesisPath string

const (
	PathAgreement           SynthesisPath = "agreement"
	PathWeightedDivergence  SynthesisPath = "weighted-divergence"
	PathExtremeDivergence   SynthesisPath = "extreme-divergence"
	PathCircuitBreaker      SynthesisPath = "circuit-breaker"
	PathAdvisoryUnavailable SynthesisPath = "advisory-unavailable"
)

// SynthesizedDecision is the terminal output of the core, one per
// instrument per run. Immutable after creation.
type SynthesizedDecision struct {
	Action     Action        `json:"action"`
	Confidence float64       `json:"confidence"`
	Agreement  bool          `json:"agreement"`
	Path       SynthesisPath `json:"path"`
	Trace      string        `json:"trace"`
	Suppressed bool          `json:"suppressed"`
}
