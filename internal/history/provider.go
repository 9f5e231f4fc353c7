package history

import (
	"context"
	"time"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/logger"
)

// Store is the persistence surface the provider needs; Repository is
// the Postgres implementation
type Store interface {
	LoadSeries(ctx context.Context, code string, days int) (contracts.PriceSeries, error)
	UpsertSeries(ctx context.Context, code string, series contracts.PriceSeries) error
}

// Provider layers the NAV repository in front of the remote data
// client: serve from Postgres when the stored history is deep and
// fresh enough, otherwise refetch and backfill. Implements
// contracts.PriceProvider.
type Provider struct {
	repo   Store
	remote contracts.PriceProvider
	logger *logger.Logger

	// staleAfter bounds how old the newest stored row may be before a
	// refetch (weekends and holidays produce legitimate gaps)
	staleAfter time.Duration
}

func NewProvider(repo Store, remote contracts.PriceProvider, log *logger.Logger) *Provider {
	return &Provider{
		repo:       repo,
		remote:     remote,
		logger:     log.Component("history"),
		staleAfter: 4 * 24 * time.Hour,
	}
}

// Series serves the trailing history, backfilling from the remote
// provider when the store is shallow or stale. A remote failure with a
// usable stored copy degrades to the stored copy.
func (p *Provider) Series(ctx context.Context, code string, days int) (contracts.PriceSeries, error) {
	stored, err := p.repo.LoadSeries(ctx, code, days)
	if err != nil {
		p.logger.WithError(err).WithField("code", code).Warn("NAV store read failed, using remote only")
		return p.remote.Series(ctx, code, days)
	}

	if p.fresh(stored, days) {
		return stored, nil
	}

	fetched, err := p.remote.Series(ctx, code, days)
	if err != nil {
		if len(stored) > 0 {
			p.logger.WithError(err).WithField("code", code).Warn("Remote history failed, serving stored series")
			return stored, nil
		}
		return nil, err
	}

	if err := p.repo.UpsertSeries(ctx, code, fetched); err != nil {
		p.logger.WithError(err).WithField("code", code).Warn("NAV backfill write failed")
	}

	return fetched, nil
}

// CurrentMove is always a remote concern: the store only holds
// published end-of-day NAVs
func (p *Provider) CurrentMove(ctx context.Context, code string) (float64, float64, error) {
	return p.remote.CurrentMove(ctx, code)
}

func (p *Provider) fresh(stored contracts.PriceSeries, days int) bool {
	if len(stored) < days {
		return false
	}
	latest, ok := stored.Latest()
	if !ok {
		return false
	}
	return time.Since(latest.Date) <= p.staleAfter
}
