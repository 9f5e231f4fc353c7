package assetprofile

import (
	"fmt"
)

// ValidationError is a fatal configuration defect (program must not
// start with a broken threshold table)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every constraint at load time so that decision-time
// code never has to defend against a malformed table
func Validate(cfg *Config) error {
	// === Windows ===
	w := cfg.Windows
	if w.Short <= 0 || w.Mid <= 0 || w.Long <= 0 {
		return ValidationError{"windows", "short/mid/long must be > 0"}
	}
	if !(w.Short < w.Mid && w.Mid < w.Long) {
		return ValidationError{"windows", "must satisfy short < mid < long"}
	}
	if w.MA <= 1 {
		return ValidationError{"windows.ma", "must be > 1"}
	}
	if w.MinObs < 2 {
		return ValidationError{"windows.min_obs", "must be >= 2"}
	}
	if w.MinObs > w.Short {
		return ValidationError{"windows.min_obs", "must be <= short window"}
	}
	if w.PerYear <= 0 {
		return ValidationError{"windows.per_year", "must be > 0"}
	}

	// === Synthesis policy ===
	s := cfg.Synthesis
	if err := validateUnit(s.AgreementBoost, "synthesis.agreement_boost"); err != nil {
		return err
	}
	if err := validateUnit(s.ExtremeDivergenceMin, "synthesis.extreme_divergence_min"); err != nil {
		return err
	}
	if err := validateUnit(s.QuantOnlyPenalty, "synthesis.quant_only_penalty"); err != nil {
		return err
	}
	if err := validateUnit(s.SuppressedConfidence, "synthesis.suppressed_confidence"); err != nil {
		return err
	}
	if err := validateUnit(s.ExtremeConfidence, "synthesis.extreme_confidence"); err != nil {
		return err
	}

	// === Profiles ===
	if len(cfg.Profiles) == 0 {
		return ValidationError{"profiles", "required"}
	}
	if _, ok := cfg.Profiles[Generic]; !ok {
		return ValidationError{"profiles", "GENERIC fallback profile is required"}
	}

	for class, p := range cfg.Profiles {
		field := func(name string) string {
			return fmt.Sprintf("profiles.%s.%s", class, name)
		}

		if !class.Valid() {
			return ValidationError{"profiles", fmt.Sprintf("unknown asset class %q", class)}
		}

		if p.ConsensusLow < 0 || p.ConsensusLow > 100 {
			return ValidationError{field("consensus_low"), "must be in [0, 100]"}
		}
		if p.ConsensusHigh < 0 || p.ConsensusHigh > 100 {
			return ValidationError{field("consensus_high"), "must be in [0, 100]"}
		}
		if p.ConsensusLow >= p.ConsensusHigh {
			return ValidationError{field("consensus_low"), "must be < consensus_high"}
		}

		if p.MABaseThreshold >= 0 {
			return ValidationError{field("ma_base_threshold"), "must be < 0"}
		}

		if p.BreakerDropPct >= 0 {
			return ValidationError{field("breaker_drop_pct"), "must be < 0"}
		}
		if p.BreakerRisePct < 0 {
			return ValidationError{field("breaker_rise_pct"), "must be >= 0 (0 disables the upside breaker)"}
		}
		if class.Bond() && p.BreakerRisePct != 0 {
			return ValidationError{field("breaker_rise_pct"), "bond classes break only on the downside"}
		}

		if p.DrawdownLimit >= 0 {
			return ValidationError{field("drawdown_limit"), "must be < 0"}
		}

		if err := validateUnit(p.AIWeight, field("ai_weight")); err != nil {
			return err
		}

		if p.VolBandScale < 0 {
			return ValidationError{field("vol_band_scale"), "must be >= 0"}
		}
		if p.VolBandMaxPts < 0 || p.VolBandMaxPts > 50 {
			return ValidationError{field("vol_band_max_pts"), "must be in [0, 50]"}
		}
	}

	return nil
}

// validateUnit checks a value is within [0, 1]
func validateUnit(v float64, field string) error {
	if v < 0 || v > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
