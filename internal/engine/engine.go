package engine

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/breaker"
	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/internal/indicator"
	"github.com/wonny/fundpilot/internal/quant"
	"github.com/wonny/fundpilot/internal/synth"
	"github.com/wonny/fundpilot/pkg/config"
	"github.com/wonny/fundpilot/pkg/logger"
)

// Engine wires the full per-instrument decision pipeline:
// history -> indicators -> (breaker, quant) -> advisory -> synthesis.
// All collaborators are injected; the engine itself holds no mutable
// state, so one instance serves concurrent runs.
// ⭐ SSOT: 의사결정 파이프라인 조립은 여기서만
type Engine struct {
	profiles   *assetprofile.Config
	indicators *indicator.Engine
	breaker    *breaker.Breaker
	quant      *quant.Generator
	synth      *synth.Synthesizer

	prices   contracts.PriceProvider
	holdings contracts.HoldingsProvider // optional, nil skips enrichment
	advisory contracts.AdvisoryProvider // optional, nil means quant-only

	historyDays     int
	advisoryTimeout time.Duration
	logger          *logger.Logger
}

// Options carries the collaborators and tuning for New
type Options struct {
	Profiles *assetprofile.Config
	Prices   contracts.PriceProvider
	Holdings contracts.HoldingsProvider
	Advisory contracts.AdvisoryProvider

	HistoryDays     int
	AdvisoryTimeout time.Duration
}

func New(opts Options, log *logger.Logger) *Engine {
	return &Engine{
		profiles:        opts.Profiles,
		indicators:      indicator.NewEngine(opts.Profiles.Windows, log),
		breaker:         breaker.New(log),
		quant:           quant.NewGenerator(opts.Profiles, log),
		synth:           synth.New(opts.Profiles, log),
		prices:          opts.Prices,
		holdings:        opts.Holdings,
		advisory:        opts.Advisory,
		historyDays:     opts.HistoryDays,
		advisoryTimeout: opts.AdvisoryTimeout,
		logger:          log.Component("engine"),
	}
}

// Evaluate runs the pipeline for one instrument. Failures stay inside
// the returned result: an unevaluable instrument reports its reason, a
// failed advisory degrades to a quant-only decision. The only way to
// get no decision at all is a data or validation failure.
func (e *Engine) Evaluate(ctx context.Context, fund config.FundConfig) contracts.InstrumentResult {
	class := assetprofile.Classify(fund.AssetClass, fund.Type, fund.Name)
	result := contracts.InstrumentResult{
		Code:       fund.Code,
		Name:       fund.Name,
		AssetClass: string(class),
	}

	series, err := e.prices.Series(ctx, fund.Code, e.historyDays)
	if err != nil {
		result.Err = "history unavailable: " + err.Error()
		return result
	}

	_, changePct, err := e.prices.CurrentMove(ctx, fund.Code)
	if err != nil {
		// An unknown current move is a neutral move, not a failure:
		// the percentile windows still carry the decision
		e.logger.WithError(err).WithField("code", fund.Code).Warn("Current move unavailable, assuming flat")
		changePct = 0
	}

	snapshot, err := e.indicators.Compute(series, changePct)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientHistory) {
			result.Err = err.Error()
			return result
		}
		result.Err = "indicator computation failed: " + err.Error()
		return result
	}
	result.Snapshot = &snapshot

	profile := e.profiles.Profile(class)
	brk := e.breaker.Evaluate(fund.Code, changePct, profile)

	sig := e.quant.Generate(fund.Code, snapshot, class, brk)
	result.Quant = &sig

	verdict := e.advise(ctx, fund, string(class), snapshot, sig)
	result.Advisory = verdict

	decision, err := e.synth.Synthesize(fund.Code, sig, verdict, class)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.Decision = &decision

	return result
}

// advise queries the advisory collaborator under its own deadline.
// Every failure mode (no provider, timeout, transport error,
// unparseable reply, run cancellation) collapses to nil: the
// synthesizer then goes quant-only.
func (e *Engine) advise(ctx context.Context, fund config.FundConfig, class string, snapshot contracts.IndicatorSnapshot, sig contracts.QuantSignal) *contracts.AdvisoryVerdict {
	if e.advisory == nil {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	advCtx, cancel := context.WithTimeout(ctx, e.advisoryTimeout)
	defer cancel()

	req := contracts.AdvisoryRequest{
		Code:       fund.Code,
		Name:       fund.Name,
		AssetClass: class,
		AsOf:       time.Now(),
		Snapshot:   snapshot,
		Quant:      sig,
	}

	if e.holdings != nil {
		// Enrichment only: a failed holdings lookup never blocks the verdict
		if holdings, err := e.holdings.Holdings(advCtx, fund.Code); err == nil {
			req.Holdings = holdings
		} else {
			e.logger.WithError(err).WithField("code", fund.Code).Debug("Holdings unavailable")
		}
	}

	verdict, err := e.advisory.Advise(advCtx, req)
	if err != nil {
		e.logger.WithError(err).WithField("code", fund.Code).Warn("Advisory unavailable, degrading to quant-only")
		return nil
	}

	return verdict
}
