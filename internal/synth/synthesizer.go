package synth

import (
	"fmt"
	"math"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/logger"
)

// Synthesizer arbitrates the quant signal against the advisory verdict.
// Deterministic and total: the same inputs always produce the same
// decision, and every well-formed input pair produces one.
// ⭐ SSOT: 최종 의사결정 합성은 여기서만
type Synthesizer struct {
	cfg    *assetprofile.Config
	logger *logger.Logger
}

func New(cfg *assetprofile.Config, log *logger.Logger) *Synthesizer {
	return &Synthesizer{cfg: cfg, logger: log}
}

// Synthesize produces the final decision for one instrument.
// advisory may be nil (unavailable, timed out, or unparseable): the
// quant signal then stands alone with a confidence penalty.
//
// Malformed inputs fail with InvalidSignal rather than being clamped.
func (s *Synthesizer) Synthesize(code string, quant contracts.QuantSignal, advisory *contracts.AdvisoryVerdict, class assetprofile.AssetClass) (contracts.SynthesizedDecision, error) {
	if err := validateQuant(quant); err != nil {
		return contracts.SynthesizedDecision{}, err
	}
	if advisory != nil {
		if err := validateAdvisory(advisory); err != nil {
			return contracts.SynthesizedDecision{}, err
		}
	}

	policy := s.cfg.Synthesis
	decision := s.arbitrate(quant, advisory, s.cfg.Profile(class), policy)

	s.logger.WithFields(map[string]interface{}{
		"code":       code,
		"action":     decision.Action,
		"confidence": decision.Confidence,
		"path":       decision.Path,
	}).Debug("Synthesized decision")

	return decision, nil
}

func (s *Synthesizer) arbitrate(quant contracts.QuantSignal, advisory *contracts.AdvisoryVerdict, profile assetprofile.Profile, policy assetprofile.Synthesis) contracts.SynthesizedDecision {
	// Suppression wins over everything: a tripped circuit breaker
	// holds regardless of what either track says
	if quant.Suppressed {
		return contracts.SynthesizedDecision{
			Action:     contracts.Hold,
			Confidence: policy.SuppressedConfidence,
			Agreement:  false,
			Path:       contracts.PathCircuitBreaker,
			Trace:      quant.Reason,
			Suppressed: true,
		}
	}

	// Advisory unavailable: quant stands alone, discounted
	if advisory == nil {
		return contracts.SynthesizedDecision{
			Action:     quant.Action,
			Confidence: quant.Confidence * (1 - policy.QuantOnlyPenalty),
			Agreement:  false,
			Path:       contracts.PathAdvisoryUnavailable,
			Trace:      fmt.Sprintf("advisory unavailable, quant-only: %s", quant.Reason),
		}
	}

	// Agreement: both tracks align, confidence gets a boost
	if quant.Action == advisory.Action {
		return contracts.SynthesizedDecision{
			Action:     quant.Action,
			Confidence: math.Min(1, (quant.Confidence+advisory.Confidence)/2+policy.AgreementBoost),
			Agreement:  true,
			Path:       contracts.PathAgreement,
			Trace:      fmt.Sprintf("tracks agree on %s: quant %.2f, advisory %.2f", quant.Action, quant.Confidence, advisory.Confidence),
		}
	}

	// Both tracks highly confident and opposed: no basis to pick a
	// side, hold and flag for review
	if quant.Confidence >= policy.ExtremeDivergenceMin && advisory.Confidence >= policy.ExtremeDivergenceMin {
		return contracts.SynthesizedDecision{
			Action:     contracts.Hold,
			Confidence: policy.ExtremeConfidence,
			Agreement:  false,
			Path:       contracts.PathExtremeDivergence,
			Trace: fmt.Sprintf("extreme divergence: quant %s %.2f vs advisory %s %.2f",
				quant.Action, quant.Confidence, advisory.Action, advisory.Confidence),
		}
	}

	// Ordinary divergence: the class AI weight splits the vote
	w := profile.AIWeight
	quantScore := quant.Confidence * (1 - w)
	advisoryScore := advisory.Confidence * w

	switch {
	case quantScore > advisoryScore:
		return contracts.SynthesizedDecision{
			Action:     quant.Action,
			Confidence: quantScore,
			Agreement:  false,
			Path:       contracts.PathWeightedDivergence,
			Trace: fmt.Sprintf("quant %s wins: %.3f vs advisory %s %.3f (ai_weight %.2f)",
				quant.Action, quantScore, advisory.Action, advisoryScore, w),
		}
	case advisoryScore > quantScore:
		return contracts.SynthesizedDecision{
			Action:     advisory.Action,
			Confidence: advisoryScore,
			Agreement:  false,
			Path:       contracts.PathWeightedDivergence,
			Trace: fmt.Sprintf("advisory %s wins: %.3f vs quant %s %.3f (ai_weight %.2f)",
				advisory.Action, advisoryScore, quant.Action, quantScore, w),
		}
	default:
		// Exact tie carries no information either way
		return contracts.SynthesizedDecision{
			Action:     contracts.Hold,
			Confidence: quantScore,
			Agreement:  false,
			Path:       contracts.PathWeightedDivergence,
			Trace: fmt.Sprintf("weighted tie at %.3f: quant %s vs advisory %s, holding",
				quantScore, quant.Action, advisory.Action),
		}
	}
}

func validateQuant(q contracts.QuantSignal) error {
	if !q.Action.Valid() {
		return &contracts.InvalidSignalError{
			Track:  "quant",
			Field:  "action",
			Detail: fmt.Sprintf("unknown action %q", q.Action),
		}
	}
	if q.Confidence < 0 || q.Confidence > 1 {
		return &contracts.InvalidSignalError{
			Track:  "quant",
			Field:  "confidence",
			Detail: fmt.Sprintf("%v outside [0, 1]", q.Confidence),
		}
	}
	return nil
}

func validateAdvisory(a *contracts.AdvisoryVerdict) error {
	if !a.Action.Valid() {
		return &contracts.InvalidSignalError{
			Track:  "advisory",
			Field:  "action",
			Detail: fmt.Sprintf("unknown action %q", a.Action),
		}
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return &contracts.InvalidSignalError{
			Track:  "advisory",
			Field:  "confidence",
			Detail: fmt.Sprintf("%v outside [0, 1]", a.Confidence),
		}
	}
	return nil
}
