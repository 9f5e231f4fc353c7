package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/database"
	"github.com/wonny/fundpilot/pkg/logger"
)

// Repository persists daily NAV rows so batch runs do not refetch two
// years of history from the provider every day. NAVs only; decisions
// are never stored.
// ⭐ SSOT: NAV 이력 저장은 여기서만
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.Component("history"),
	}
}

// UpsertSeries writes the series in one batch. Re-published NAVs
// overwrite the stored row (providers correct values after dividends).
func (r *Repository) UpsertSeries(ctx context.Context, code string, series contracts.PriceSeries) error {
	if len(series) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range series {
		batch.Queue(`
			INSERT INTO fund_nav (code, nav_date, nav)
			VALUES ($1, $2, $3)
			ON CONFLICT (code, nav_date) DO UPDATE SET nav = EXCLUDED.nav
		`, code, p.Date, p.NAV)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range series {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert NAV rows for %s: %w", code, err)
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"code": code,
		"rows": len(series),
	}).Debug("Upserted NAV series")

	return nil
}

// LoadSeries reads the trailing NAV history, oldest first
func (r *Repository) LoadSeries(ctx context.Context, code string, days int) (contracts.PriceSeries, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT nav_date, nav
		FROM (
			SELECT nav_date, nav
			FROM fund_nav
			WHERE code = $1
			ORDER BY nav_date DESC
			LIMIT $2
		) recent
		ORDER BY nav_date ASC
	`, code, days)
	if err != nil {
		return nil, fmt.Errorf("failed to load NAV series for %s: %w", code, err)
	}
	defer rows.Close()

	var series contracts.PriceSeries
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Date, &p.NAV); err != nil {
			return nil, fmt.Errorf("failed to scan NAV row: %w", err)
		}
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read NAV rows: %w", err)
	}

	return series, nil
}

// LatestDate returns the most recent stored NAV date, or zero when the
// fund has no rows yet
func (r *Repository) LatestDate(ctx context.Context, code string) (time.Time, error) {
	var latest *time.Time
	err := r.db.Pool.QueryRow(ctx, `
		SELECT MAX(nav_date) FROM fund_nav WHERE code = $1
	`, code).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read latest NAV date for %s: %w", code, err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}
