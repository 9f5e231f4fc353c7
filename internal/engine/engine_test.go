package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/config"
	"github.com/wonny/fundpilot/pkg/logger"
)

// fakePrices serves a synthetic declining series so the quant track
// produces a Buy, plus a configurable current move
type fakePrices struct {
	mu        sync.Mutex
	navs      map[string]contracts.PriceSeries
	move      float64
	seriesErr map[string]error
	moveErr   error
}

func newFakePrices() *fakePrices {
	return &fakePrices{
		navs:      make(map[string]contracts.PriceSeries),
		seriesErr: make(map[string]error),
	}
}

func (f *fakePrices) with(code string, n int) *fakePrices {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := make(contracts.PriceSeries, n)
	for i := range s {
		// Long slow decline: latest NAV is the historical minimum
		s[i] = contracts.PricePoint{Date: start.AddDate(0, 0, i), NAV: 2.0 - float64(i)*0.001}
	}
	f.navs[code] = s
	return f
}

func (f *fakePrices) Series(_ context.Context, code string, days int) (contracts.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.seriesErr[code]; err != nil {
		return nil, err
	}
	s, ok := f.navs[code]
	if !ok {
		return nil, fmt.Errorf("unknown fund %s", code)
	}
	return s.Tail(days), nil
}

func (f *fakePrices) CurrentMove(context.Context, string) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveErr != nil {
		return 0, 0, f.moveErr
	}
	return 1.0, f.move, nil
}

type fakeAdvisory struct {
	verdict *contracts.AdvisoryVerdict
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeAdvisory) Advise(ctx context.Context, _ contracts.AdvisoryRequest) (*contracts.AdvisoryVerdict, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.verdict, nil
}

func newTestEngine(prices contracts.PriceProvider, advisory contracts.AdvisoryProvider) *Engine {
	return New(Options{
		Profiles:        assetprofile.Default(),
		Prices:          prices,
		Advisory:        advisory,
		HistoryDays:     520,
		AdvisoryTimeout: 200 * time.Millisecond,
	}, logger.NewNop())
}

func goldFund(code string) config.FundConfig {
	return config.FundConfig{Code: code, Name: "黄金ETF联接", Type: "ETF_Feeder", AssetClass: "GOLD_ETF"}
}

func TestEvaluateFullPipeline(t *testing.T) {
	prices := newFakePrices().with("518880", 520)
	advisory := &fakeAdvisory{verdict: &contracts.AdvisoryVerdict{Action: contracts.Buy, Confidence: 0.7}}

	result := newTestEngine(prices, advisory).Evaluate(context.Background(), goldFund("518880"))

	if !result.Evaluated() {
		t.Fatalf("expected a decision, got error %q", result.Err)
	}
	if result.Decision.Action != contracts.Buy {
		t.Errorf("Action = %v, want Buy (cheap series + agreeing advisory)", result.Decision.Action)
	}
	if result.Decision.Path != contracts.PathAgreement {
		t.Errorf("Path = %v, want agreement", result.Decision.Path)
	}
	if result.Quant == nil || result.Snapshot == nil || result.Advisory == nil {
		t.Error("result must carry quant, snapshot and advisory tracks")
	}
	if result.AssetClass != "GOLD_ETF" {
		t.Errorf("AssetClass = %q, want GOLD_ETF", result.AssetClass)
	}
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	prices := newFakePrices().with("000001", 10)

	result := newTestEngine(prices, nil).Evaluate(context.Background(), goldFund("000001"))

	if result.Evaluated() {
		t.Fatal("10 observations must be unevaluable")
	}
	if !strings.Contains(result.Err, "insufficient history") {
		t.Errorf("Err = %q, want insufficient history", result.Err)
	}
}

func TestEvaluateAdvisoryErrorDegradesToQuantOnly(t *testing.T) {
	prices := newFakePrices().with("518880", 520)
	advisory := &fakeAdvisory{err: errors.New("api down")}

	result := newTestEngine(prices, advisory).Evaluate(context.Background(), goldFund("518880"))

	if !result.Evaluated() {
		t.Fatalf("advisory failure must not fail the instrument: %q", result.Err)
	}
	if result.Decision.Path != contracts.PathAdvisoryUnavailable {
		t.Errorf("Path = %v, want advisory-unavailable", result.Decision.Path)
	}
	if result.Advisory != nil {
		t.Error("failed advisory must leave the verdict nil")
	}
}

func TestEvaluateAdvisoryTimeoutDegradesToQuantOnly(t *testing.T) {
	prices := newFakePrices().with("518880", 520)
	advisory := &fakeAdvisory{
		verdict: &contracts.AdvisoryVerdict{Action: contracts.Sell, Confidence: 0.9},
		delay:   5 * time.Second, // far past the 200ms engine timeout
	}

	start := time.Now()
	result := newTestEngine(prices, advisory).Evaluate(context.Background(), goldFund("518880"))

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced: evaluation took %v", elapsed)
	}
	if !result.Evaluated() {
		t.Fatalf("timed-out advisory must not fail the instrument: %q", result.Err)
	}
	if result.Decision.Path != contracts.PathAdvisoryUnavailable {
		t.Errorf("Path = %v, want advisory-unavailable", result.Decision.Path)
	}
}

func TestEvaluateNoAdvisoryProvider(t *testing.T) {
	prices := newFakePrices().with("518880", 520)

	result := newTestEngine(prices, nil).Evaluate(context.Background(), goldFund("518880"))

	if !result.Evaluated() {
		t.Fatalf("quant-only engine must still decide: %q", result.Err)
	}
	if result.Decision.Path != contracts.PathAdvisoryUnavailable {
		t.Errorf("Path = %v, want advisory-unavailable", result.Decision.Path)
	}
}

func TestEvaluateBreakerSuppression(t *testing.T) {
	prices := newFakePrices().with("518880", 520)
	prices.move = -9.0 // past gold's -8% drop limit
	advisory := &fakeAdvisory{verdict: &contracts.AdvisoryVerdict{Action: contracts.Buy, Confidence: 0.95}}

	result := newTestEngine(prices, advisory).Evaluate(context.Background(), goldFund("518880"))

	if !result.Evaluated() {
		t.Fatalf("suppression is a decision, not an error: %q", result.Err)
	}
	if result.Decision.Action != contracts.Hold {
		t.Errorf("Action = %v, want Hold", result.Decision.Action)
	}
	if result.Decision.Path != contracts.PathCircuitBreaker {
		t.Errorf("Path = %v, want circuit-breaker", result.Decision.Path)
	}
	if !result.Decision.Suppressed {
		t.Error("decision must be flagged suppressed")
	}
}

func TestEvaluateCurrentMoveFailureAssumesFlat(t *testing.T) {
	prices := newFakePrices().with("518880", 520)
	prices.moveErr = errors.New("valuation endpoint down")

	result := newTestEngine(prices, nil).Evaluate(context.Background(), goldFund("518880"))

	if !result.Evaluated() {
		t.Fatalf("move failure must not fail the instrument: %q", result.Err)
	}
	if result.Snapshot.DailyChangePct != 0 {
		t.Errorf("DailyChangePct = %v, want 0 (flat assumption)", result.Snapshot.DailyChangePct)
	}
}

func TestRunPreservesInputOrder(t *testing.T) {
	prices := newFakePrices()
	var funds []config.FundConfig
	for i := 0; i < 10; i++ {
		code := fmt.Sprintf("%06d", i)
		prices.with(code, 520)
		funds = append(funds, goldFund(code))
	}

	batch := newTestEngine(prices, nil).Run(context.Background(), funds, 4)

	if len(batch.Results) != 10 {
		t.Fatalf("results = %d, want 10", len(batch.Results))
	}
	for i, r := range batch.Results {
		if want := fmt.Sprintf("%06d", i); r.Code != want {
			t.Errorf("result[%d].Code = %s, want %s", i, r.Code, want)
		}
	}
	if batch.RunID == "" {
		t.Error("batch must carry a run ID")
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	prices := newFakePrices().with("000001", 520).with("000003", 520)
	prices.seriesErr["000002"] = errors.New("provider 500")
	funds := []config.FundConfig{goldFund("000001"), goldFund("000002"), goldFund("000003")}

	batch := newTestEngine(prices, nil).Run(context.Background(), funds, 2)

	if !batch.Results[0].Evaluated() || !batch.Results[2].Evaluated() {
		t.Error("healthy instruments must still be evaluated")
	}
	if batch.Results[1].Evaluated() {
		t.Error("failed instrument must not carry a decision")
	}
	if batch.Evaluated() != 2 {
		t.Errorf("Evaluated() = %d, want 2", batch.Evaluated())
	}
}

func TestRunCancelledContext(t *testing.T) {
	prices := newFakePrices().with("000001", 520)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := newTestEngine(prices, nil).Run(ctx, []config.FundConfig{goldFund("000001")}, 1)

	if len(batch.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(batch.Results))
	}
	if batch.Results[0].Evaluated() {
		t.Error("instrument started after cancellation must not be evaluated")
	}
}

func TestRunSingleWorkerStillCompletes(t *testing.T) {
	prices := newFakePrices().with("000001", 520).with("000002", 520)
	funds := []config.FundConfig{goldFund("000001"), goldFund("000002")}

	batch := newTestEngine(prices, nil).Run(context.Background(), funds, 0)

	if batch.Evaluated() != 2 {
		t.Errorf("Evaluated() = %d, want 2 with clamped worker count", batch.Evaluated())
	}
}
