package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/config"
)

// Run evaluates the whole fund pool with a bounded worker pool and
// returns the results in input order. Per-instrument failures stay in
// their slot; the batch itself always completes. Cancellation of ctx
// stops the advisory track (in-flight instruments finish quant-only)
// and skips instruments not yet started.
func (e *Engine) Run(ctx context.Context, funds []config.FundConfig, workers int) *contracts.BatchResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(funds) && len(funds) > 0 {
		workers = len(funds)
	}

	batch := &contracts.BatchResult{
		RunID:     newRunID(),
		StartedAt: time.Now(),
		Results:   make([]contracts.InstrumentResult, len(funds)),
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id":  batch.RunID,
		"funds":   len(funds),
		"workers": workers,
	}).Info("Decision run started")

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					batch.Results[i] = contracts.InstrumentResult{
						Code: funds[i].Code,
						Name: funds[i].Name,
						Err:  "run cancelled before evaluation: " + ctx.Err().Error(),
					}
					continue
				}
				batch.Results[i] = e.Evaluate(ctx, funds[i])
			}
		}()
	}

	for i := range funds {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	batch.FinishedAt = time.Now()

	e.logger.WithFields(map[string]interface{}{
		"run_id":    batch.RunID,
		"evaluated": batch.Evaluated(),
		"funds":     len(funds),
		"duration":  batch.FinishedAt.Sub(batch.StartedAt),
	}).Info("Decision run finished")

	return batch
}

// newRunID builds a sortable run identifier: timestamp plus a short
// random suffix against same-second reruns
func newRunID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return time.Now().UTC().Format("20060102T150405Z") + "-" + hex.EncodeToString(suffix)
}
