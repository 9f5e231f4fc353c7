package contracts

import (
	"context"
	"time"
)

// PriceProvider supplies the NAV history and the current-period move
// for one instrument (data-acquisition collaborator)
// ⭐ SSOT: 시세 데이터 공급 인터페이스
type PriceProvider interface {
	// Series returns the trailing NAV history, oldest first
	Series(ctx context.Context, code string, days int) (PriceSeries, error)

	// CurrentMove returns the latest estimated NAV and the period move
	// in percent
	CurrentMove(ctx context.Context, code string) (nav float64, changePct float64, err error)
}

// HoldingsProvider enriches the advisory context with the fund's top
// holdings. Optional: a nil breakdown is valid.
type HoldingsProvider interface {
	Holdings(ctx context.Context, code string) ([]Holding, error)
}

// Holding is one position of a fund's disclosed portfolio
type Holding struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	WeightPct float64 `json:"weight_pct"`
	ChangePct float64 `json:"change_pct"`
}

// AdvisoryProvider produces the advisory verdict from the quant
// context (external collaborator, possibly slow, possibly failing)
type AdvisoryProvider interface {
	Advise(ctx context.Context, req AdvisoryRequest) (*AdvisoryVerdict, error)
}

// AdvisoryRequest is the context payload handed to the advisory
// collaborator
type AdvisoryRequest struct {
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	AssetClass string            `json:"asset_class"`
	AsOf       time.Time         `json:"as_of"`
	Snapshot   IndicatorSnapshot `json:"snapshot"`
	Quant      QuantSignal       `json:"quant"`
	Holdings   []Holding         `json:"holdings,omitempty"`
}

// Reporter consumes the per-instrument results of a batch run
// (reporting collaborator)
type Reporter interface {
	Report(ctx context.Context, batch *BatchResult) error
}
