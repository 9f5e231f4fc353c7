package report

import (
	"context"
	"sync"

	"github.com/wonny/fundpilot/internal/contracts"
)

// Store keeps the latest completed batch in memory for the API layer.
// Decisions are deliberately not persisted; a restart starts blank and
// the next scheduled run repopulates it.
// ⭐ SSOT: 최신 배치 결과 보관은 여기서만
type Store struct {
	mu     sync.RWMutex
	latest *contracts.BatchResult
}

func NewStore() *Store {
	return &Store{}
}

// Report implements contracts.Reporter
func (s *Store) Report(_ context.Context, batch *contracts.BatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = batch
	return nil
}

// Latest returns the most recent batch, or nil before the first run
func (s *Store) Latest() *contracts.BatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Find returns one instrument's result from the latest batch
func (s *Store) Find(code string) (*contracts.InstrumentResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest.Find(code)
}

// Multi fans one batch out to several reporters; the first failure
// wins but every reporter still runs
type Multi []contracts.Reporter

func (m Multi) Report(ctx context.Context, batch *contracts.BatchResult) error {
	var first error
	for _, r := range m {
		if err := r.Report(ctx, batch); err != nil && first == nil {
			first = err
		}
	}
	return first
}
