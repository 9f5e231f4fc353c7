package eastmoney

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/redis"
)

const (
	historyPageSize = 49 // the f10 endpoint caps pages at 49 rows
	historyCacheTTL = time.Hour
)

type historyWire struct {
	Data struct {
		LSJZList []struct {
			Date string `json:"FSRQ"` // 净值日期
			NAV  string `json:"DWJZ"` // 单位净值
		} `json:"LSJZList"`
	} `json:"Data"`
	TotalCount int `json:"TotalCount"`
	ErrCode    int `json:"ErrCode"`
}

// Series returns the trailing NAV history for a fund, oldest first.
// Served from the Redis cache when a fresh enough copy exists.
func (c *Client) Series(ctx context.Context, code string, days int) (contracts.PriceSeries, error) {
	cacheKey := fmt.Sprintf("history:%s:%d", code, days)

	var cached contracts.PriceSeries
	if err := c.cache.Get(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	} else if err != nil && !errors.Is(err, redis.ErrCacheMiss) {
		c.logger.WithError(err).Warn("History cache read failed, fetching fresh")
	}

	series, err := c.fetchSeries(ctx, code, days)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, cacheKey, series, historyCacheTTL); err != nil {
		c.logger.WithError(err).Warn("History cache write failed")
	}

	return series, nil
}

// fetchSeries pages through the f10 history endpoint until it has
// enough rows or the provider runs out
func (c *Client) fetchSeries(ctx context.Context, code string, days int) (contracts.PriceSeries, error) {
	var series contracts.PriceSeries

	for page := 1; len(series) < days; page++ {
		rows, total, err := c.fetchHistoryPage(ctx, code, page)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		series = append(series, rows...)

		if len(series) >= total {
			break
		}
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("no NAV history for fund %s", code)
	}

	// The endpoint serves newest first; decisions want oldest first
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	if len(series) > days {
		series = series[len(series)-days:]
	}

	return series, nil
}

func (c *Client) fetchHistoryPage(ctx context.Context, code string, page int) (contracts.PriceSeries, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	url := fmt.Sprintf("%s/f10/lsjz?fundCode=%s&pageIndex=%d&pageSize=%d",
		c.cfg.HistoryBaseURL, code, page, historyPageSize)

	resp, err := c.http.GetWithHeaders(ctx, url, defaultHeaders)
	if err != nil {
		return nil, 0, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, 0, fmt.Errorf("history endpoint returned %d for %s page %d", resp.StatusCode, code, page)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read history response: %w", err)
	}

	var wire historyWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, 0, fmt.Errorf("failed to decode history response: %w", err)
	}
	if wire.ErrCode != 0 {
		return nil, 0, fmt.Errorf("history endpoint error code %d for %s", wire.ErrCode, code)
	}

	rows := make(contracts.PriceSeries, 0, len(wire.Data.LSJZList))
	for _, row := range wire.Data.LSJZList {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			c.logger.WithField("date", row.Date).Warn("Skipping history row with bad date")
			continue
		}
		nav, err := parseFloat(row.NAV)
		if err != nil {
			// Dividend/split rows sometimes carry an empty NAV
			continue
		}
		rows = append(rows, contracts.PricePoint{Date: date, NAV: nav})
	}

	return rows, wire.TotalCount, nil
}

// CurrentMove returns the latest estimated NAV and the period move in
// percent. Prefers the intraday estimate; outside trading hours, when
// the estimate is stale or missing, falls back to the last two
// published NAVs.
func (c *Client) CurrentMove(ctx context.Context, code string) (float64, float64, error) {
	v, verr := c.Valuation(ctx, code)
	if verr == nil && v.EstimatedNAV > 0 {
		return v.EstimatedNAV, v.EstimatedPct, nil
	}

	series, err := c.Series(ctx, code, 2)
	if err != nil {
		return 0, 0, fmt.Errorf("current move unavailable for %s: %w", code, err)
	}
	if len(series) < 2 {
		latest, _ := series.Latest()
		return latest.NAV, 0, nil
	}

	prev, last := series[len(series)-2].NAV, series[len(series)-1].NAV
	if prev == 0 {
		return last, 0, nil
	}
	return last, (last - prev) / prev * 100, nil
}
