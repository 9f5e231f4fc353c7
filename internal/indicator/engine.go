package indicator

import (
	"math"
	"sort"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/logger"
)

// Engine computes the indicator snapshot from a NAV history
// ⭐ SSOT: 지표 계산은 여기서만
type Engine struct {
	windows assetprofile.Windows
	logger  *logger.Logger
}

// NewEngine creates an indicator engine with the configured windows
func NewEngine(windows assetprofile.Windows, log *logger.Logger) *Engine {
	return &Engine{
		windows: windows,
		logger:  log,
	}
}

// Compute derives all indicators from the series. The series must be
// chronological (oldest first). dailyChangePct is the current-period
// move in percent, supplied by the data collaborator.
//
// Fails with InsufficientHistory below the minimum observation count.
// Between the minimum and the long window it runs best-effort and
// reports Coverage < 1 so the signal generator can damp confidence.
func (e *Engine) Compute(series contracts.PriceSeries, dailyChangePct float64) (contracts.IndicatorSnapshot, error) {
	if len(series) < e.windows.MinObs {
		return contracts.IndicatorSnapshot{}, &contracts.InsufficientHistoryError{
			Have: len(series),
			Need: e.windows.MinObs,
		}
	}

	values := series.Values()
	latest := values[len(values)-1]

	snapshot := contracts.IndicatorSnapshot{
		PercentileShort: percentileRank(latest, tail(values, e.windows.Short)),
		PercentileMid:   percentileRank(latest, tail(values, e.windows.Mid)),
		PercentileLong:  percentileRank(latest, tail(values, e.windows.Long)),
		MADeviation:     maDeviation(latest, tail(values, e.windows.MA)),
		Volatility:      annualizedVolatility(tail(values, e.windows.Short), e.windows.PerYear),
		MaxDrawdown:     maxDrawdown(tail(values, e.windows.Short)),
		DailyChangePct:  dailyChangePct,
		Coverage:        math.Min(1.0, float64(len(series))/float64(e.windows.Long)),
		Windows: contracts.Windows{
			Short: e.windows.Short,
			Mid:   e.windows.Mid,
			Long:  e.windows.Long,
			MA:    e.windows.MA,
		},
	}

	e.logger.WithFields(map[string]interface{}{
		"pct_short": snapshot.PercentileShort,
		"pct_mid":   snapshot.PercentileMid,
		"pct_long":  snapshot.PercentileLong,
		"ma_dev":    snapshot.MADeviation,
		"vol":       snapshot.Volatility,
		"drawdown":  snapshot.MaxDrawdown,
		"coverage":  snapshot.Coverage,
	}).Debug("Computed indicator snapshot")

	return snapshot, nil
}

// tail returns the trailing n values (all of them when n exceeds the
// slice length)
func tail(values []float64, n int) []float64 {
	if n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}

// percentileRank places the latest value within the sorted window,
// 0-100. Ties count inclusively: the rank of the value itself. The
// window maximum ranks 100, the minimum 0. A flat window is neutral 50.
func percentileRank(latest float64, window []float64) float64 {
	n := len(window)
	if n < 2 {
		return 50.0
	}

	sorted := make([]float64, n)
	copy(sorted, window)
	sort.Float64s(sorted)

	if sorted[0] == sorted[n-1] {
		// Flat window: no meaningful position
		return 50.0
	}

	// Inclusive rank: number of observations <= latest
	rank := sort.SearchFloat64s(sorted, math.Nextafter(latest, math.Inf(1)))
	if rank < 1 {
		rank = 1
	}

	return float64(rank-1) / float64(n-1) * 100.0
}

// maDeviation is the latest value's deviation from the window mean, as
// a fraction
func maDeviation(latest float64, window []float64) float64 {
	if len(window) == 0 {
		return 0
	}

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))

	if mean == 0 {
		return 0
	}
	return (latest - mean) / mean
}

// annualizedVolatility is the sample standard deviation of simple
// daily returns over the window, annualized by sqrt(perYear).
// Returned as a fraction, always >= 0.
func annualizedVolatility(window []float64, perYear int) float64 {
	if len(window) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		returns = append(returns, (window[i]-window[i-1])/window[i-1])
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(float64(perYear))
}

// maxDrawdown is the largest peak-to-trough decline within the window,
// as a negative fraction. 0 when the window never declined.
func maxDrawdown(window []float64) float64 {
	if len(window) < 2 {
		return 0
	}

	peak := window[0]
	worst := 0.0

	for _, v := range window[1:] {
		if v > peak {
			peak = v
			continue
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}

	return worst
}
