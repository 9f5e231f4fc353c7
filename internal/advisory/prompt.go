package advisory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wonny/fundpilot/internal/contracts"
)

// systemPrompt pins the model to the reply contract the parser
// understands. The model sees the quant track's conclusion and is asked
// to agree or challenge it, not to restate it.
const systemPrompt = `You are a fund investment advisor. You receive a JSON context with
valuation percentiles, volatility, drawdown and a rule-based signal for one fund.

Give YOUR OWN verdict. You may disagree with the rule-based signal; say why.

Reply with exactly three lines:
ACTION: BUY | SELL | HOLD
CONFIDENCE: a number between 0 and 1
REASON: one sentence`

// BuildMessages assembles the chat payload for one instrument
func BuildMessages(req contracts.AdvisoryRequest) ([]Message, error) {
	payload := map[string]interface{}{
		"code":        req.Code,
		"name":        req.Name,
		"asset_class": req.AssetClass,
		"as_of":       req.AsOf.Format("2006-01-02"),
		"indicators":  req.Snapshot,
		"quant":       req.Quant,
	}
	if len(req.Holdings) > 0 {
		payload["top_holdings"] = req.Holdings
	}

	context, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode advisory context: %w", err)
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Fund %s (%s), asset class %s.\n\n", req.Code, req.Name, req.AssetClass)
	user.WriteString("Context:\n```json\n")
	user.Write(context)
	user.WriteString("\n```\n")

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user.String()},
	}, nil
}
