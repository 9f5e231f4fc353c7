package assetprofile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the profile YAML and returns the validated Config.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates profile YAML bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // unknown fields fail immediately
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Hash generates a SHA256 hash of the Config (canonical JSON) for
// audit trails. Struct marshaling keeps the field order deterministic.
func Hash(cfg *Config) (string, error) {
	// map keys are sorted by encoding/json, so the profile map is
	// deterministic too
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Default returns the built-in configuration used when no YAML file is
// supplied. The values mirror config/profiles.yaml.
func Default() *Config {
	return &Config{
		Windows: Windows{
			Short:   60,
			Mid:     250,
			Long:    500,
			MA:      60,
			MinObs:  20,
			PerYear: 252,
		},
		Synthesis: Synthesis{
			AgreementBoost:       0.10,
			ExtremeDivergenceMin: 0.80,
			QuantOnlyPenalty:     0.20,
			SuppressedConfidence: 0.30,
			ExtremeConfidence:    0.50,
		},
		Profiles: map[AssetClass]Profile{
			GoldETF: {
				ConsensusLow:    35,
				ConsensusHigh:   65,
				MABaseThreshold: -0.025,
				BreakerDropPct:  -8,
				BreakerRisePct:  8,
				DrawdownLimit:   -0.15,
				AIWeight:        0.6,
				VolBandScale:    25,
				VolBandMaxPts:   15,
				Description:     "gold hedge: negatively correlated with equities, tolerant bands",
			},
			CommodityCycle: {
				ConsensusLow:    30,
				ConsensusHigh:   70,
				MABaseThreshold: -0.04,
				BreakerDropPct:  -10,
				BreakerRisePct:  10,
				DrawdownLimit:   -0.20,
				AIWeight:        0.5,
				VolBandScale:    25,
				VolBandMaxPts:   15,
				Description:     "cyclical commodities: extreme bands, contrarian entries",
			},
			BondEnhanced: {
				ConsensusLow:    40,
				ConsensusHigh:   60,
				MABaseThreshold: -0.015,
				BreakerDropPct:  -3,
				BreakerRisePct:  0, // downside only
				DrawdownLimit:   -0.08,
				AIWeight:        0.4,
				VolBandScale:    25,
				VolBandMaxPts:   10,
				Description:     "enhanced bond: equity sleeve, higher volatility than pure bond",
			},
			BondPure: {
				ConsensusLow:    45,
				ConsensusHigh:   55,
				MABaseThreshold: -0.008,
				BreakerDropPct:  -2,
				BreakerRisePct:  0, // downside only
				DrawdownLimit:   -0.05,
				AIWeight:        0.3,
				VolBandScale:    25,
				VolBandMaxPts:   5,
				Description:     "pure bond: low volatility, tight sensitive bands",
			},
			ETFFeeder: {
				ConsensusLow:    40,
				ConsensusHigh:   60,
				MABaseThreshold: -0.03,
				BreakerDropPct:  -7,
				BreakerRisePct:  7,
				DrawdownLimit:   -0.15,
				AIWeight:        0.5,
				VolBandScale:    25,
				VolBandMaxPts:   15,
				Description:     "generic ETF feeder",
			},
			Generic: {
				ConsensusLow:    40,
				ConsensusHigh:   60,
				MABaseThreshold: -0.03,
				BreakerDropPct:  -7,
				BreakerRisePct:  7,
				DrawdownLimit:   -0.15,
				AIWeight:        0.5,
				VolBandScale:    25,
				VolBandMaxPts:   15,
				Description:     "fallback profile for unclassified instruments",
			},
		},
	}
}
