package eastmoney

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValuation(t *testing.T) {
	raw := `jsonpgz({"fundcode":"002611","name":"华安黄金易ETF联接C","jzrq":"2026-08-21","dwjz":"3.4560","gsz":"3.4905","gszzl":"1.00","gztime":"2026-08-22 15:00"});`

	v, err := parseValuation([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "002611", v.Code)
	assert.Equal(t, "华安黄金易ETF联接C", v.Name)
	assert.Equal(t, 3.4560, v.LastNAV)
	assert.Equal(t, 3.4905, v.EstimatedNAV)
	assert.Equal(t, 1.00, v.EstimatedPct)
	assert.Equal(t, "2026-08-21", v.LastNAVDate)
}

func TestParseValuationNegativeMove(t *testing.T) {
	raw := `jsonpgz({"fundcode":"004010","name":"x","jzrq":"2026-08-21","dwjz":"1.1000","gsz":"1.0725","gszzl":"-2.50","gztime":"2026-08-22 14:30"})`

	v, err := parseValuation([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, -2.50, v.EstimatedPct)
}

func TestParseValuationRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "jsonpgz();", "<html>blocked</html>", `jsonpgz({"dwjz":"abc"});`} {
		_, err := parseValuation([]byte(raw))
		assert.Error(t, err, "payload %q", raw)
	}
}

func TestParseHoldings(t *testing.T) {
	body := `var apidata={ content:"<div class='boxitem'><table class='w782 comm tzxq'><thead><tr><th>序号</th><th>股票代码</th><th>股票名称</th><th>最新价</th><th>涨跌幅</th><th>占净值比例</th><th>持股数</th><th>持仓市值</th></tr></thead><tbody><tr><td>1</td><td>518880</td><td>黄金ETF</td><td>7.80</td><td>0.52%</td><td>95.20%</td><td>1200.00</td><td>9360.00</td></tr><tr><td>2</td><td>600519</td><td>贵州茅台</td><td>1500.00</td><td>-1.10%</td><td>2.10%</td><td>1.00</td><td>1500.00</td></tr></tbody></table></div>",arryear:[2026,2025],curyear:2026};`

	holdings, err := parseHoldings(body)
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	assert.Equal(t, "518880", holdings[0].Code)
	assert.Equal(t, "黄金ETF", holdings[0].Name)
	assert.Equal(t, 95.20, holdings[0].WeightPct)

	assert.Equal(t, "贵州茅台", holdings[1].Name)
	assert.Equal(t, 2.10, holdings[1].WeightPct)
}

func TestParseHoldingsNoContent(t *testing.T) {
	_, err := parseHoldings("var apidata={};")
	assert.Error(t, err)
}

func TestExtractContent(t *testing.T) {
	got, err := extractContent(`var apidata={ content:"<table></table>",arryear:[2026]};`)
	require.NoError(t, err)
	assert.Equal(t, "<table></table>", got)
}
