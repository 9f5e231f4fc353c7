package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/logger"
)

func testWindows() assetprofile.Windows {
	return assetprofile.Windows{
		Short:   60,
		Mid:     250,
		Long:    500,
		MA:      60,
		MinObs:  20,
		PerYear: 252,
	}
}

func series(values ...float64) contracts.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := make(contracts.PriceSeries, len(values))
	for i, v := range values {
		s[i] = contracts.PricePoint{Date: start.AddDate(0, 0, i), NAV: v}
	}
	return s
}

// linear builds an n-point strictly increasing series
func linear(n int) contracts.PriceSeries {
	values := make([]float64, n)
	for i := range values {
		values[i] = 1.0 + float64(i)*0.01
	}
	return series(values...)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeInsufficientHistory(t *testing.T) {
	engine := NewEngine(testWindows(), logger.NewNop())

	_, err := engine.Compute(linear(19), 0)
	if err == nil {
		t.Fatal("expected error for 19 observations")
	}
	if !errors.Is(err, contracts.ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}

	var ihe *contracts.InsufficientHistoryError
	if !errors.As(err, &ihe) {
		t.Fatal("expected InsufficientHistoryError")
	}
	if ihe.Have != 19 || ihe.Need != 20 {
		t.Errorf("have/need = %d/%d, want 19/20", ihe.Have, ihe.Need)
	}
}

func TestComputeMinimumHistorySucceeds(t *testing.T) {
	engine := NewEngine(testWindows(), logger.NewNop())

	snap, err := engine.Compute(linear(20), 0.5)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if snap.DailyChangePct != 0.5 {
		t.Errorf("DailyChangePct = %v, want 0.5", snap.DailyChangePct)
	}
	if want := 20.0 / 500.0; !almostEqual(snap.Coverage, want) {
		t.Errorf("Coverage = %v, want %v", snap.Coverage, want)
	}
}

func TestCoverageCapsAtOne(t *testing.T) {
	engine := NewEngine(testWindows(), logger.NewNop())

	snap, err := engine.Compute(linear(600), 0)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if snap.Coverage != 1.0 {
		t.Errorf("Coverage = %v, want 1.0", snap.Coverage)
	}
}

func TestPercentileRankExtremes(t *testing.T) {
	// Latest value is the window maximum in a rising series
	engine := NewEngine(testWindows(), logger.NewNop())
	snap, err := engine.Compute(linear(100), 0)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if snap.PercentileShort != 100.0 {
		t.Errorf("rising series short percentile = %v, want 100", snap.PercentileShort)
	}

	// Latest value is the window minimum in a falling series
	values := make([]float64, 100)
	for i := range values {
		values[i] = 2.0 - float64(i)*0.01
	}
	snap, err = engine.Compute(series(values...), 0)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if snap.PercentileShort != 0.0 {
		t.Errorf("falling series short percentile = %v, want 0", snap.PercentileShort)
	}
}

func TestPercentileRankMidpoint(t *testing.T) {
	// 5-point window, latest is the 3rd smallest: (3-1)/(5-1)*100 = 50
	got := percentileRank(1.2, []float64{1.0, 1.1, 1.2, 1.3, 1.4})
	if !almostEqual(got, 50.0) {
		t.Errorf("percentileRank = %v, want 50", got)
	}
}

func TestPercentileRankTiesInclusive(t *testing.T) {
	// Three copies of 1.2: inclusive rank counts all of them
	got := percentileRank(1.2, []float64{1.0, 1.2, 1.2, 1.2, 1.4})
	if want := 3.0 / 4.0 * 100.0; !almostEqual(got, want) {
		t.Errorf("percentileRank = %v, want %v", got, want)
	}
}

func TestPercentileRankFlatWindow(t *testing.T) {
	got := percentileRank(1.0, []float64{1.0, 1.0, 1.0, 1.0})
	if got != 50.0 {
		t.Errorf("flat window percentile = %v, want 50", got)
	}
}

func TestMADeviation(t *testing.T) {
	// Mean of [1.0, 1.0, 1.0, 1.2] = 1.05; latest 1.2 -> +14.2857%
	got := maDeviation(1.2, []float64{1.0, 1.0, 1.0, 1.2})
	if want := (1.2 - 1.05) / 1.05; !almostEqual(got, want) {
		t.Errorf("maDeviation = %v, want %v", got, want)
	}

	// Flat window has zero deviation
	if got := maDeviation(1.0, []float64{1.0, 1.0, 1.0}); got != 0 {
		t.Errorf("flat maDeviation = %v, want 0", got)
	}
}

func TestVolatilityFlatSeriesIsZero(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 1.0
	}
	if got := annualizedVolatility(values, 252); got != 0 {
		t.Errorf("flat volatility = %v, want 0", got)
	}
}

func TestVolatilityAlternatingReturns(t *testing.T) {
	// Returns alternate +1% / ~-0.99%: nonzero sample stddev, annualized
	values := []float64{1.0}
	for i := 0; i < 59; i++ {
		last := values[len(values)-1]
		if i%2 == 0 {
			values = append(values, last*1.01)
		} else {
			values = append(values, last*0.99)
		}
	}

	got := annualizedVolatility(values, 252)
	if got <= 0 {
		t.Fatalf("volatility = %v, want > 0", got)
	}
	// Daily stddev is ~1%, annualized ~15.9%
	if got < 0.10 || got > 0.25 {
		t.Errorf("volatility = %v, want roughly 0.16", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		window []float64
		want   float64
	}{
		{"monotone rise", []float64{1.0, 1.1, 1.2, 1.3}, 0},
		{"single dip", []float64{1.0, 1.2, 1.08, 1.3}, (1.08 - 1.2) / 1.2},
		{"deepest dip wins", []float64{1.0, 1.2, 1.1, 1.5, 1.2}, (1.2 - 1.5) / 1.5},
		{"trough after later peak", []float64{1.0, 0.9, 1.4, 1.05}, (1.05 - 1.4) / 1.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maxDrawdown(tt.window)
			if !almostEqual(got, tt.want) {
				t.Errorf("maxDrawdown = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawdownUsesShortWindowOnly(t *testing.T) {
	// A crash 100 observations ago must not show in the 60-day drawdown
	values := make([]float64, 160)
	for i := range values {
		values[i] = 2.0
	}
	values[30] = 1.0 // old crash, outside the trailing 60
	for i := 100; i < 160; i++ {
		values[i] = 2.0 + float64(i-100)*0.001
	}

	engine := NewEngine(testWindows(), logger.NewNop())
	snap, err := engine.Compute(series(values...), 0)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if snap.MaxDrawdown != 0 {
		t.Errorf("MaxDrawdown = %v, want 0 (crash outside window)", snap.MaxDrawdown)
	}
}

func TestWindowsReported(t *testing.T) {
	engine := NewEngine(testWindows(), logger.NewNop())
	snap, err := engine.Compute(linear(100), 0)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	want := contracts.Windows{Short: 60, Mid: 250, Long: 500, MA: 60}
	if snap.Windows != want {
		t.Errorf("Windows = %+v, want %+v", snap.Windows, want)
	}
}
