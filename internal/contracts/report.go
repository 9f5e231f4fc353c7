package contracts

import "time"

// InstrumentResult is the full per-instrument output handed to the
// reporting layer: the final decision plus the underlying tracks, in a
// stable field layout so report templates need no knowledge of the
// synthesis internals.
type InstrumentResult struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	AssetClass string `json:"asset_class"`

	Decision *SynthesizedDecision `json:"decision,omitempty"`
	Quant    *QuantSignal         `json:"quant,omitempty"`
	Advisory *AdvisoryVerdict     `json:"advisory,omitempty"`
	Snapshot *IndicatorSnapshot   `json:"snapshot,omitempty"`

	// Unevaluable instruments carry the failure reason instead of a
	// decision (e.g. insufficient history)
	Err string `json:"error,omitempty"`
}

// Evaluated reports whether the instrument produced a decision
func (r *InstrumentResult) Evaluated() bool {
	return r.Decision != nil
}

// BatchResult is an ordered collection of instrument results for one
// scheduled run
type BatchResult struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Results    []InstrumentResult `json:"results"`
}

// Evaluated counts the instruments that produced a decision
func (b *BatchResult) Evaluated() int {
	n := 0
	for i := range b.Results {
		if b.Results[i].Evaluated() {
			n++
		}
	}
	return n
}

// Find returns the result for an instrument code
func (b *BatchResult) Find(code string) (*InstrumentResult, bool) {
	for i := range b.Results {
		if b.Results[i].Code == code {
			return &b.Results[i], true
		}
	}
	return nil, false
}
