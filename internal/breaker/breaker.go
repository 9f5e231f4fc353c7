package breaker

import (
	"fmt"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/pkg/logger"
)

// Result of one circuit-breaker evaluation. Tripped means the
// instrument's quant signal must be suppressed to Hold for this run.
type Result struct {
	Tripped   bool    `json:"tripped"`
	Direction string  `json:"direction,omitempty"` // "drop" or "rise"
	Threshold float64 `json:"threshold,omitempty"` // the breached limit, percent
	Move      float64 `json:"move,omitempty"`      // the observed move, percent
	Reason    string  `json:"reason,omitempty"`
}

// Breaker suppresses trading signals on extreme single-period moves.
// Stateless between runs: every evaluation looks only at the current
// move against the asset class thresholds.
// ⭐ SSOT: 서킷브레이커 판정은 여기서만
type Breaker struct {
	logger *logger.Logger
}

func New(log *logger.Logger) *Breaker {
	return &Breaker{logger: log}
}

// Evaluate checks the current move (percent, e.g. -2.5) against the
// class thresholds. Drop and rise limits are independent: bond classes
// configure RisePct = 0, which disables the upside breaker entirely.
// A move exactly at the threshold trips.
func (b *Breaker) Evaluate(code string, move float64, profile assetprofile.Profile) Result {
	if move <= profile.BreakerDropPct {
		r := Result{
			Tripped:   true,
			Direction: "drop",
			Threshold: profile.BreakerDropPct,
			Move:      move,
			Reason:    fmt.Sprintf("move %.2f%% breached drop limit %.2f%%", move, profile.BreakerDropPct),
		}
		b.logger.WithFields(map[string]interface{}{
			"code":      code,
			"move":      move,
			"threshold": profile.BreakerDropPct,
		}).Warn("Circuit breaker tripped on drop")
		return r
	}

	if profile.BreakerRisePct > 0 && move >= profile.BreakerRisePct {
		r := Result{
			Tripped:   true,
			Direction: "rise",
			Threshold: profile.BreakerRisePct,
			Move:      move,
			Reason:    fmt.Sprintf("move %.2f%% breached rise limit %.2f%%", move, profile.BreakerRisePct),
		}
		b.logger.WithFields(map[string]interface{}{
			"code":      code,
			"move":      move,
			"threshold": profile.BreakerRisePct,
		}).Warn("Circuit breaker tripped on rise")
		return r
	}

	return Result{}
}
