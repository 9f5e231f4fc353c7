package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Valuation is the realtime intraday estimate for one fund
type Valuation struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	LastNAV      float64 `json:"last_nav"`      // dwjz: last published NAV
	EstimatedNAV float64 `json:"estimated_nav"` // gsz: intraday estimate
	EstimatedPct float64 `json:"estimated_pct"` // gszzl: estimated move, percent
	EstimateTime string  `json:"estimate_time"` // gztime
	LastNAVDate  string  `json:"last_nav_date"` // jzrq
}

// raw wire format: every numeric field arrives as a string
type valuationWire struct {
	Code         string `json:"fundcode"`
	Name         string `json:"name"`
	LastNAV      string `json:"dwjz"`
	EstimatedNAV string `json:"gsz"`
	EstimatedPct string `json:"gszzl"`
	EstimateTime string `json:"gztime"`
	LastNAVDate  string `json:"jzrq"`
}

// Valuation fetches the fundgz realtime estimate. The endpoint answers
// with a JSONP wrapper: jsonpgz({...});
func (c *Client) Valuation(ctx context.Context, code string) (*Valuation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/js/%s.js", c.cfg.ValuationBaseURL, code)
	resp, err := c.http.GetWithHeaders(ctx, url, defaultHeaders)
	if err != nil {
		return nil, fmt.Errorf("valuation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("valuation endpoint returned %d for %s", resp.StatusCode, code)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("failed to read valuation response: %w", err)
	}

	return parseValuation(raw)
}

// parseValuation strips the jsonpgz(...) wrapper and decodes the body
func parseValuation(raw []byte) (*Valuation, error) {
	body := strings.TrimSpace(string(raw))
	body = strings.TrimPrefix(body, "jsonpgz(")
	body = strings.TrimSuffix(body, ";")
	body = strings.TrimSuffix(body, ")")

	if body == "" {
		return nil, fmt.Errorf("empty valuation payload")
	}

	var wire valuationWire
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("failed to decode valuation payload: %w", err)
	}

	v := &Valuation{
		Code:         wire.Code,
		Name:         wire.Name,
		EstimateTime: wire.EstimateTime,
		LastNAVDate:  wire.LastNAVDate,
	}

	var err error
	if v.LastNAV, err = parseFloat(wire.LastNAV); err != nil {
		return nil, fmt.Errorf("bad dwjz %q: %w", wire.LastNAV, err)
	}
	if v.EstimatedNAV, err = parseFloat(wire.EstimatedNAV); err != nil {
		return nil, fmt.Errorf("bad gsz %q: %w", wire.EstimatedNAV, err)
	}
	if v.EstimatedPct, err = parseFloat(wire.EstimatedPct); err != nil {
		return nil, fmt.Errorf("bad gszzl %q: %w", wire.EstimatedPct, err)
	}

	return v, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
