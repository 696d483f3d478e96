package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finboard/internal/app"
	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/models"
)

type stubPriceClient struct{}

func (stubPriceClient) GetPriceHistory(ctx context.Context, ticker string, start time.Time) (*models.PriceHistory, error) {
	return &models.PriceHistory{
		Ticker: ticker,
		From:   start,
		Bars: []models.PriceBar{
			{TradingDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Open: 100, High: 103, Low: 99, Close: 102, Volume: 1500},
			{TradingDate: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Open: 102, High: 104, Low: 98, Close: 99.5, Volume: 2500},
		},
	}, nil
}

// useTestApp points loadApp at an app over temp snapshots and a stub quote client.
func useTestApp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "FA_processed.csv"), []byte(
		"TICKER,DATE,KEYCODE,VALUE\n"+
			"FPT,2025Q1,NPATMI,2000000000000\n"+
			"FPT,2025Q2,NPATMI,2500000000000\n"+
			"TINY,2025Q2,NPATMI,1000000000\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MktCap_processed.csv"), []byte(
		"TICKER,CUR_MKT_CAP\nFPT,180000\nTINY,100\n"), 0644))

	prev := loadApp
	loadApp = func(string) (*app.App, error) {
		cfg := common.NewDefaultConfig()
		cfg.Data.Dir = dir
		return app.NewAppWithConfig(cfg, common.NewSilentLogger(), stubPriceClient{}), nil
	}
	t.Cleanup(func() { loadApp = prev })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSummaryCommand_Table(t *testing.T) {
	useTestApp(t)

	out, err := run(t, "summary", "--metric", "NPATMI", "--period", "2025Q2")
	require.NoError(t, err)
	assert.Contains(t, out, "2025Q2 NPATMI (Billions VND)")
	assert.Contains(t, out, "FPT")
	assert.Contains(t, out, "2500.00")
	assert.Contains(t, out, "25.00")
	assert.NotContains(t, out, "TINY", "below the configured threshold")

	out, err = run(t, "summary", "--metric", "NPATMI", "--min-cap", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "TINY")
}

func TestSummaryCommand_MinCapFromEnv(t *testing.T) {
	useTestApp(t)
	t.Setenv("FINBOARD_MIN_CAP", "0")

	out, err := run(t, "summary", "--metric", "NPATMI")
	require.NoError(t, err)
	assert.Contains(t, out, "TINY")
}

func TestSummaryCommand_CSV(t *testing.T) {
	useTestApp(t)

	out, err := run(t, "summary", "--metric", "NPATMI", "--csv", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "TICKER,2025Q2 NPATMI (Billions VND),YoY Growth (%),QoQ Growth (%),Market Cap (Billions VND)\n")
	assert.Contains(t, out, "FPT,2500,,25,180000\n")

	path := filepath.Join(t.TempDir(), "summary.csv")
	out, err = run(t, "summary", "--metric", "NPATMI", "--csv", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 rows")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FPT,2500,,25,180000")
}

func TestSummaryCommand_UnknownMetric(t *testing.T) {
	useTestApp(t)

	_, err := run(t, "summary", "--metric", "EPS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric")
}

func TestPricesCommand(t *testing.T) {
	useTestApp(t)

	out, err := run(t, "prices", "fpt", "--from", "2025-01-01", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "FPT from 2025-01-01")
	assert.Contains(t, out, "2025-01-03")
	assert.Contains(t, out, "99.50")
	assert.NotContains(t, out, "2025-01-02")

	_, err = run(t, "prices")
	assert.Error(t, err, "ticker argument is required")

	_, err = run(t, "prices", "FPT", "--from", "2025/01/01")
	assert.Error(t, err)
}

func TestPricesCommand_PNG(t *testing.T) {
	useTestApp(t)

	path := filepath.Join(t.TempDir(), "fpt.png")
	out, err := run(t, "prices", "FPT", "--from", "2025-01-01", "--png", path, "--width", "400")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote chart")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, common.GetVersion()+"\n", out)
}
