package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundpilot/internal/contracts"
)

func TestParseVerdictWellFormed(t *testing.T) {
	v, err := ParseVerdict("ACTION: BUY\nCONFIDENCE: 0.75\nREASON: valuation in the bottom decile")
	require.NoError(t, err)

	assert.Equal(t, contracts.Buy, v.Action)
	assert.Equal(t, 0.75, v.Confidence)
	assert.Equal(t, "valuation in the bottom decile", v.Rationale)
}

func TestParseVerdictMarkdownAndProse(t *testing.T) {
	reply := "Here is my assessment:\n\n" +
		"```\n" +
		"**ACTION**: sell\n" +
		"**CONFIDENCE**: 80%\n" +
		"**REASON**: all windows near historical highs\n" +
		"```\n" +
		"Let me know if you need more detail."

	v, err := ParseVerdict(reply)
	require.NoError(t, err)

	assert.Equal(t, contracts.Sell, v.Action)
	assert.InDelta(t, 0.80, v.Confidence, 1e-9)
}

func TestParseVerdictChinese(t *testing.T) {
	v, err := ParseVerdict("操作：买入\n置信度：高\n理由：估值处于历史低位")
	require.NoError(t, err)

	assert.Equal(t, contracts.Buy, v.Action)
	assert.Equal(t, 0.9, v.Confidence)
	assert.Equal(t, "估值处于历史低位", v.Rationale)
}

func TestParseVerdictWordConfidence(t *testing.T) {
	tests := []struct {
		word string
		want float64
	}{
		{"high", 0.9},
		{"Medium", 0.6},
		{"low", 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			v, err := ParseVerdict("ACTION: HOLD\nCONFIDENCE: " + tt.word + "\nREASON: mixed")
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Confidence)
		})
	}
}

func TestParseVerdictPercentScale(t *testing.T) {
	// A bare number above 1 reads as a percentage
	v, err := ParseVerdict("ACTION: HOLD\nCONFIDENCE: 65\nREASON: mixed")
	require.NoError(t, err)
	assert.InDelta(t, 0.65, v.Confidence, 1e-9)
}

func TestParseVerdictRejects(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", ""},
		{"prose only", "I think this fund looks attractive right now."},
		{"missing confidence", "ACTION: BUY\nREASON: cheap"},
		{"missing action", "CONFIDENCE: 0.9\nREASON: cheap"},
		{"unknown action word", "ACTION: ACCUMULATE AGGRESSIVELY MAYBE\nCONFIDENCE: 0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerdict(tt.reply)
			assert.Error(t, err)
		})
	}
}

func TestBuildMessagesIncludesContext(t *testing.T) {
	req := contracts.AdvisoryRequest{
		Code:       "518880",
		Name:       "华安黄金ETF联接A",
		AssetClass: "GOLD_ETF",
		Quant: contracts.QuantSignal{
			Action:     contracts.Buy,
			Confidence: 0.8,
		},
		Holdings: []contracts.Holding{{Name: "黄金ETF", Code: "518880", WeightPct: 95}},
	}

	msgs, err := BuildMessages(req)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "ACTION:")
	assert.Equal(t, "user", msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "518880")
	assert.Contains(t, msgs[1].Content, "GOLD_ETF")
	assert.Contains(t, msgs[1].Content, "top_holdings")
}
