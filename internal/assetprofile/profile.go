package assetprofile

import (
	"strings"
)

// AssetClass is the closed set of instrument categories. Each class
// maps to one Profile; thresholds are never looked up by free-form
// string at decision time.
// ⭐ SSOT: 자산 분류는 여기서만 정의
type AssetClass string

const (
	GoldETF        AssetClass = "GOLD_ETF"        // 황금 ETF 联接, defensive, negatively correlated with equities
	CommodityCycle AssetClass = "COMMODITY_CYCLE" // cyclical commodity ETF, high volatility
	BondPure       AssetClass = "BOND_PURE"       // pure bond fund, low volatility, rate sensitive
	BondEnhanced   AssetClass = "BOND_ENHANCED"   // enhanced bond fund with an equity sleeve
	ETFFeeder      AssetClass = "ETF_FEEDER"      // generic ETF feeder fund
	Generic        AssetClass = "GENERIC"         // fallback for unclassified instruments
)

// All lists every known asset class
func All() []AssetClass {
	return []AssetClass{GoldETF, CommodityCycle, BondPure, BondEnhanced, ETFFeeder, Generic}
}

// Valid reports whether the class belongs to the closed set
func (c AssetClass) Valid() bool {
	switch c {
	case GoldETF, CommodityCycle, BondPure, BondEnhanced, ETFFeeder, Generic:
		return true
	}
	return false
}

// Bond reports whether the class is a bond variant (asymmetric circuit
// breaker: downside only)
func (c AssetClass) Bond() bool {
	return c == BondPure || c == BondEnhanced
}

// Profile holds the per-class strategy parameters
type Profile struct {
	// Percentile consensus bands (0-100). Below Low → cheap,
	// above High → expensive.
	ConsensusLow  float64 `yaml:"consensus_low" json:"consensus_low"`
	ConsensusHigh float64 `yaml:"consensus_high" json:"consensus_high"`

	// Base MA-deviation threshold as a negative fraction; the effective
	// threshold is widened dynamically by volatility
	MABaseThreshold float64 `yaml:"ma_base_threshold" json:"ma_base_threshold"`

	// Circuit breaker thresholds in percent. Drop is required and
	// negative. Rise is optional: zero disables the upside breaker
	// (bond classes break only on the downside).
	BreakerDropPct float64 `yaml:"breaker_drop_pct" json:"breaker_drop_pct"`
	BreakerRisePct float64 `yaml:"breaker_rise_pct" json:"breaker_rise_pct"`

	// Drawdown beyond this limit (negative fraction) forces Hold
	DrawdownLimit float64 `yaml:"drawdown_limit" json:"drawdown_limit"`

	// Weight on the advisory verdict when the tracks diverge
	AIWeight float64 `yaml:"ai_weight" json:"ai_weight"`

	// Percentile-band widening per 1.0 of annualized volatility, and
	// its cap, both in percentile points
	VolBandScale  float64 `yaml:"vol_band_scale" json:"vol_band_scale"`
	VolBandMaxPts float64 `yaml:"vol_band_max_pts" json:"vol_band_max_pts"`

	Description string `yaml:"description" json:"description"`
}

// Windows holds the indicator window configuration
type Windows struct {
	Short   int `yaml:"short" json:"short"`
	Mid     int `yaml:"mid" json:"mid"`
	Long    int `yaml:"long" json:"long"`
	MA      int `yaml:"ma" json:"ma"`
	MinObs  int `yaml:"min_obs" json:"min_obs"`
	PerYear int `yaml:"per_year" json:"per_year"` // trading periods per year
}

// Synthesis holds the arbitration policy. The cutoffs are policy
// choices without a principled derivation, so they stay configurable.
type Synthesis struct {
	AgreementBoost       float64 `yaml:"agreement_boost" json:"agreement_boost"`
	ExtremeDivergenceMin float64 `yaml:"extreme_divergence_min" json:"extreme_divergence_min"`
	QuantOnlyPenalty     float64 `yaml:"quant_only_penalty" json:"quant_only_penalty"`
	SuppressedConfidence float64 `yaml:"suppressed_confidence" json:"suppressed_confidence"`
	ExtremeConfidence    float64 `yaml:"extreme_confidence" json:"extreme_confidence"`
}

// Config is the full strategy configuration: one Profile per asset
// class plus the shared windows and synthesis policy. Immutable after
// Load; constructed once at process start and passed explicitly.
type Config struct {
	Windows   Windows                `yaml:"windows" json:"windows"`
	Synthesis Synthesis              `yaml:"synthesis" json:"synthesis"`
	Profiles  map[AssetClass]Profile `yaml:"profiles" json:"profiles"`
}

// Profile returns the profile for a class, falling back to GENERIC for
// unknown classes
func (c *Config) Profile(class AssetClass) Profile {
	if p, ok := c.Profiles[class]; ok {
		return p
	}
	return c.Profiles[Generic]
}

// Classify resolves the asset class for an instrument: the configured
// class when valid, otherwise inferred from fund type and name.
func Classify(assetClass, fundType, name string) AssetClass {
	if c := AssetClass(assetClass); c.Valid() {
		return c
	}
	return Infer(fundType, name)
}

// Infer guesses the asset class from fund type and name, for
// instruments without an explicit asset_class
func Infer(fundType, name string) AssetClass {
	lower := strings.ToLower(name)

	switch fundType {
	case "ETF_Feeder":
		if strings.Contains(name, "黄金") || strings.Contains(lower, "gold") {
			return GoldETF
		}
		for _, kw := range []string{"有色", "金属", "铜", "铝", "稀土", "钢铁", "煤炭", "石油", "原油"} {
			if strings.Contains(name, kw) {
				return CommodityCycle
			}
		}
		return ETFFeeder

	case "Bond":
		// Enhanced bond funds usually carry these words in the name
		for _, kw := range []string{"增强", "回报", "收益", "双债", "信用"} {
			if strings.Contains(name, kw) {
				return BondEnhanced
			}
		}
		return BondPure
	}

	return Generic
}
