package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/internal/engine"
	"github.com/wonny/fundpilot/pkg/config"
	"github.com/wonny/fundpilot/pkg/logger"
)

// DecisionJob runs the decision pipeline over the whole fund pool and
// hands the batch to the reporters. One run at a time: a manual
// trigger while the scheduled run is still going is refused, never
// queued.
// ⭐ SSOT: 배치 의사결정 실행은 이 작업에서만
type DecisionJob struct {
	engine   *engine.Engine
	funds    []config.FundConfig
	workers  int
	deadline time.Duration
	schedule string
	reporter contracts.Reporter
	logger   *logger.Logger

	mu      sync.Mutex
	running bool
}

func NewDecisionJob(
	eng *engine.Engine,
	funds []config.FundConfig,
	engineCfg config.EngineConfig,
	schedule string,
	reporter contracts.Reporter,
	log *logger.Logger,
) *DecisionJob {
	return &DecisionJob{
		engine:   eng,
		funds:    funds,
		workers:  engineCfg.Workers,
		deadline: engineCfg.RunDeadline,
		schedule: schedule,
		reporter: reporter,
		logger:   log.Component("decision-job"),
	}
}

func (j *DecisionJob) Name() string {
	return "decision"
}

func (j *DecisionJob) Schedule() string {
	return j.schedule
}

// Run executes one batch under the configured deadline
func (j *DecisionJob) Run(ctx context.Context) error {
	if !j.acquire() {
		return fmt.Errorf("decision run already in progress")
	}
	defer j.release()

	runCtx, cancel := context.WithTimeout(ctx, j.deadline)
	defer cancel()

	batch := j.engine.Run(runCtx, j.funds, j.workers)

	if err := j.reporter.Report(ctx, batch); err != nil {
		return fmt.Errorf("failed to report batch %s: %w", batch.RunID, err)
	}

	if batch.Evaluated() == 0 && len(j.funds) > 0 {
		return fmt.Errorf("batch %s evaluated no instruments", batch.RunID)
	}

	return nil
}

// TriggerAsync starts a run in the background. Returns false when a
// run is already in flight.
func (j *DecisionJob) TriggerAsync() bool {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return false
	}
	j.mu.Unlock()

	go func() {
		if err := j.Run(context.Background()); err != nil {
			j.logger.WithError(err).Error("Triggered decision run failed")
		}
	}()

	return true
}

func (j *DecisionJob) acquire() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return false
	}
	j.running = true
	return true
}

func (j *DecisionJob) release() {
	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}
