package advisory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wonny/fundpilot/internal/contracts"
)

// ParseVerdict extracts the structured verdict from the model's reply.
// Expected line format:
//
//	ACTION: BUY
//	CONFIDENCE: 0.75
//	REASON: ...
//
// The parser tolerates markdown fences, surrounding prose, mixed case
// and Chinese action words; it does NOT guess. A reply without a
// recognizable action is an error and the caller degrades to
// quant-only.
func ParseVerdict(content string) (*contracts.AdvisoryVerdict, error) {
	var (
		action     contracts.Action
		confidence = -1.0
		reason     string
	)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "`*#"))
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			key, value, ok = strings.Cut(line, "：")
			if !ok {
				continue
			}
		}

		key = strings.ToUpper(strings.Trim(strings.TrimSpace(key), "*_`"))
		value = strings.Trim(strings.TrimSpace(value), "*_`")

		switch key {
		case "ACTION", "操作", "建议":
			if a, ok := parseAction(value); ok {
				action = a
			}
		case "CONFIDENCE", "置信度", "信心":
			if c, ok := parseConfidence(value); ok {
				confidence = c
			}
		case "REASON", "REASONING", "理由", "原因":
			if reason == "" {
				reason = value
			}
		}
	}

	if action == "" {
		return nil, fmt.Errorf("no recognizable action in advisory reply (%d bytes)", len(content))
	}
	if confidence < 0 {
		return nil, fmt.Errorf("no recognizable confidence in advisory reply")
	}

	return &contracts.AdvisoryVerdict{
		Action:     action,
		Confidence: confidence,
		Rationale:  reason,
	}, nil
}

func parseAction(value string) (contracts.Action, bool) {
	upper := strings.ToUpper(value)
	switch {
	case strings.HasPrefix(upper, "BUY"), strings.Contains(value, "买入"), strings.Contains(value, "加仓"):
		return contracts.Buy, true
	case strings.HasPrefix(upper, "SELL"), strings.Contains(value, "卖出"), strings.Contains(value, "减仓"):
		return contracts.Sell, true
	case strings.HasPrefix(upper, "HOLD"), strings.Contains(value, "持有"), strings.Contains(value, "观望"):
		return contracts.Hold, true
	}
	return "", false
}

// parseConfidence accepts a number in [0,1], a percentage, or one of
// the word grades models fall back to
func parseConfidence(value string) (float64, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}

	cleaned := strings.TrimSuffix(fields[0], "%")
	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		if strings.HasSuffix(fields[0], "%") || v > 1 {
			v /= 100
		}
		if v >= 0 && v <= 1 {
			return v, true
		}
		return 0, false
	}

	switch strings.ToLower(value) {
	case "high", "高":
		return 0.9, true
	case "medium", "moderate", "中", "中等":
		return 0.6, true
	case "low", "低":
		return 0.3, true
	}
	return 0, false
}
