package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/redis"
)

const holdingsCacheTTL = 24 * time.Hour

// Holdings fetches the fund's disclosed top positions from the f10
// archive endpoint. The endpoint answers with a JS assignment
// (var apidata={ content:"<table>..." ,...}) whose content field is an
// HTML table; goquery digs the rows out.
//
// Holdings are enrichment for the advisory prompt: failures are the
// caller's to tolerate, an empty slice is a valid answer.
func (c *Client) Holdings(ctx context.Context, code string) ([]contracts.Holding, error) {
	cacheKey := "holdings:" + code

	var cached []contracts.Holding
	if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		c.logger.WithError(err).Warn("Holdings cache read failed, fetching fresh")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/FundArchivesDatas.aspx?type=jjcc&code=%s&topline=10", c.cfg.HoldingsBaseURL, code)
	resp, err := c.http.GetWithHeaders(ctx, url, defaultHeaders)
	if err != nil {
		return nil, fmt.Errorf("holdings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("holdings endpoint returned %d for %s", resp.StatusCode, code)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings response: %w", err)
	}

	holdings, err := parseHoldings(string(raw))
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, cacheKey, holdings, holdingsCacheTTL); err != nil {
		c.logger.WithError(err).Warn("Holdings cache write failed")
	}

	return holdings, nil
}

// parseHoldings extracts the embedded HTML table from the apidata JS
// blob and reads the first disclosed period's rows
func parseHoldings(body string) ([]contracts.Holding, error) {
	html, err := extractContent(body)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse holdings HTML: %w", err)
	}

	var holdings []contracts.Holding
	doc.Find("table").First().Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		// Layout: #, code, name, (price, change), weight%, shares, value
		h := contracts.Holding{
			Code: strings.TrimSpace(cells.Eq(1).Text()),
			Name: strings.TrimSpace(cells.Eq(2).Text()),
		}
		if h.Code == "" || h.Name == "" {
			return
		}

		// Weight is the first cell ending in % scanning from the right
		// (older disclosures drop the price columns)
		for i := cells.Length() - 1; i >= 3; i-- {
			text := strings.TrimSpace(cells.Eq(i).Text())
			if strings.HasSuffix(text, "%") {
				if w, err := parseFloat(strings.TrimSuffix(text, "%")); err == nil {
					h.WeightPct = w
				}
				break
			}
		}

		holdings = append(holdings, h)
	})

	return holdings, nil
}

// extractContent pulls the quoted content field out of the apidata blob
func extractContent(body string) (string, error) {
	const marker = "content:\""
	start := strings.Index(body, marker)
	if start < 0 {
		return "", fmt.Errorf("holdings payload has no content field")
	}
	start += len(marker)

	end := strings.Index(body[start:], "\",")
	if end < 0 {
		end = strings.LastIndex(body[start:], "\"")
		if end < 0 {
			return "", fmt.Errorf("holdings content field not terminated")
		}
	}

	return body[start : start+end], nil
}
