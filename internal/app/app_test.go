package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/models"
)

type stubPriceClient struct {
	bars []models.PriceBar
	err  error
}

func (s *stubPriceClient) GetPriceHistory(ctx context.Context, ticker string, start time.Time) (*models.PriceHistory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.PriceHistory{Ticker: ticker, From: start, Bars: s.bars}, nil
}

func newTestApp(t *testing.T, client *stubPriceClient) *App {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "FA_processed.csv"), []byte(
		"TICKER,DATE,KEYCODE,VALUE\n"+
			"FPT,2025Q1,NPATMI,2000000000000\n"+
			"FPT,2025Q2,NPATMI,2500000000000\n"+
			"VNM,2025Q2,NPATMI,1000000000000\n"+
			"TINY,2025Q2,NPATMI,1000000000\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MktCap_processed.csv"), []byte(
		"TICKER,CUR_MKT_CAP\nFPT,180000\nVNM,150000\nTINY,100\n"), 0644))

	cfg := common.NewDefaultConfig()
	cfg.Data.Dir = dir
	a := NewAppWithConfig(cfg, common.NewSilentLogger(), client)
	t.Cleanup(a.Close)
	return a
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	return result.Content[0].(mcp.TextContent).Text, result.IsError
}

func TestNewAppWithConfig_Wiring(t *testing.T) {
	a := newTestApp(t, &stubPriceClient{})
	assert.NotNil(t, a.PriceService)
	assert.NotNil(t, a.EarningsService)
	assert.NotNil(t, a.Sessions)
	assert.NotNil(t, a.MCPServer)
	assert.Equal(t, []string{"NPATMI", "EBIT", "Net_Revenue"}, a.EarningsService.Metrics())
}

func TestGetVersionTool(t *testing.T) {
	text, isErr := callTool(t, handleGetVersion(), map[string]interface{}{})
	assert.False(t, isErr)
	assert.Contains(t, text, "Status: OK")
}

func TestGetPriceHistoryTool(t *testing.T) {
	bars := []models.PriceBar{
		{TradingDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
		{TradingDate: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Open: 100.5, High: 102, Low: 100, Close: 101.25, Volume: 2000},
	}
	a := newTestApp(t, &stubPriceClient{bars: bars})
	now := func() time.Time { return time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC) }
	handler := handleGetPriceHistory(a.PriceService, a.Logger, now)

	text, isErr := callTool(t, handler, map[string]interface{}{"ticker": "fpt", "limit": float64(1)})
	assert.False(t, isErr)
	assert.Contains(t, text, "# FPT Price History")
	assert.Contains(t, text, "**From:** 2025-01-01")
	assert.Contains(t, text, "(showing last 1)")
	assert.Contains(t, text, "| 2025-01-03 | 100.50 | 102.00 | 100.00 | 101.25 | 2000 |")
	assert.NotContains(t, text, "| 2025-01-02 |")

	_, isErr = callTool(t, handler, map[string]interface{}{})
	assert.True(t, isErr, "ticker is required")

	_, isErr = callTool(t, handler, map[string]interface{}{"ticker": "FPT", "from": "yesterday"})
	assert.True(t, isErr)
}

func TestGetPriceHistoryTool_UpstreamFailure(t *testing.T) {
	a := newTestApp(t, &stubPriceClient{err: errors.New("TCBS API error: down (status: 503)")})
	handler := handleGetPriceHistory(a.PriceService, a.Logger, time.Now)

	text, isErr := callTool(t, handler, map[string]interface{}{"ticker": "FPT"})
	assert.True(t, isErr)
	assert.Contains(t, text, "503")
}

func TestEarningsSummaryTool(t *testing.T) {
	a := newTestApp(t, &stubPriceClient{})
	handler := handleEarningsSummary(a.EarningsService, a.Config.Data.DefaultMinMarketCap, a.Logger)

	text, isErr := callTool(t, handler, map[string]interface{}{"metric": "NPATMI"})
	assert.False(t, isErr)
	assert.Contains(t, text, "# 2025Q2 NPATMI Earnings Summary")
	assert.Contains(t, text, "**Tickers:** 2")
	assert.Contains(t, text, "| FPT | 2500.00 | N/A | 25.00 | 180000.00 |")
	assert.NotContains(t, text, "TINY", "below the default 500bn threshold")

	text, isErr = callTool(t, handler, map[string]interface{}{"metric": "NPATMI", "min_market_cap": float64(0)})
	assert.False(t, isErr)
	assert.Contains(t, text, "TINY")

	text, isErr = callTool(t, handler, map[string]interface{}{"metric": "EPS"})
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown metric")

	_, isErr = callTool(t, handler, map[string]interface{}{})
	assert.True(t, isErr)
}

func TestHousekeeping(t *testing.T) {
	a := newTestApp(t, &stubPriceClient{})
	a.Cache.Set("prices.history|FPT", 1, time.Nanosecond)
	a.Cache.Set("earnings.tables", 2, 0)
	time.Sleep(time.Millisecond)

	a.housekeeping()
	assert.Equal(t, 1, a.Cache.Len())
}

func TestStartScheduler(t *testing.T) {
	a := newTestApp(t, &stubPriceClient{})
	require.NoError(t, a.StartScheduler())
	a.Close()
	assert.Nil(t, a.scheduler)

	a.Config.Cache.SweepSchedule = "not a schedule"
	assert.Error(t, a.StartScheduler())
}

func TestResolveConfigPath(t *testing.T) {
	assert.Equal(t, "explicit.toml", ResolveConfigPath("explicit.toml"))

	t.Setenv("FINBOARD_CONFIG", "/etc/finboard.toml")
	assert.Equal(t, "/etc/finboard.toml", ResolveConfigPath(""))
}
