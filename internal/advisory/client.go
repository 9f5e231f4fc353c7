package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/config"
	"github.com/wonny/fundpilot/pkg/httputil"
	"github.com/wonny/fundpilot/pkg/logger"
	"github.com/wonny/fundpilot/pkg/redis"
)

// Message is one chat turn in the completions request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client calls a DeepSeek-compatible chat-completions API and turns
// the reply into an AdvisoryVerdict. Implements contracts.AdvisoryProvider.
//
// The call is wrapped in a circuit breaker: after repeated failures the
// client fails fast for a cooldown window and every instrument degrades
// to quant-only without burning its advisory timeout.
// ⭐ SSOT: 외부 자문 API 호출은 여기서만
type Client struct {
	cfg      config.AdvisoryConfig
	http     *httputil.Client
	cb       *gobreaker.CircuitBreaker
	limiter  *redis.RateLimiter
	limitCfg redis.RateLimitConfig
	logger   *logger.Logger
}

// NewClient builds the advisory client. limiter may be backed by a
// disabled Redis, which turns rate limiting into a no-op.
func NewClient(cfg config.AdvisoryConfig, limiter *redis.RateLimiter, log *logger.Logger) *Client {
	// Chat completion bodies are not safely replayable, so transport
	// retries stay off; the breaker plus the engine's quant-only
	// fallback cover transient failures.
	httpClient := httputil.NewWithTimeout(log, cfg.Timeout).DisableRetry()

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "advisory",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Advisory circuit breaker state changed")
		},
	})

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		cb:      cb,
		limiter: limiter,
		limitCfg: redis.RateLimitConfig{
			Key:    "advisory",
			Limit:  cfg.RateLimit,
			Window: cfg.RateWindow,
		},
		logger: log.Component("advisory"),
	}
}

// Advise requests a verdict for one instrument. Respects ctx for the
// caller's per-instrument deadline.
func (c *Client) Advise(ctx context.Context, req contracts.AdvisoryRequest) (*contracts.AdvisoryVerdict, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("advisory API key not configured")
	}

	messages, err := BuildMessages(req)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx, c.limitCfg); err != nil {
		return nil, fmt.Errorf("advisory rate limit: %w", err)
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.complete(ctx, messages)
	})
	if err != nil {
		return nil, err
	}
	content := result.(string)

	verdict, err := ParseVerdict(content)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"code":  req.Code,
			"error": err.Error(),
		}).Warn("Advisory reply unparseable")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"code":       req.Code,
		"action":     verdict.Action,
		"confidence": verdict.Confidence,
	}).Info("Advisory verdict received")

	return verdict, nil
}

// complete performs one chat-completions round trip
func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   500,
	}

	url := c.cfg.BaseURL + "/chat/completions"
	resp, err := c.http.PostJSONWithHeaders(ctx, url, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("advisory request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read advisory response: %w", err)
	}

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("advisory API returned %d: %.200s", resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode advisory response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("advisory API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("advisory response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
