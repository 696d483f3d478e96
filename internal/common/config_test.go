package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, "2025Q2", cfg.Data.DefaultPeriod)
	assert.Equal(t, []string{"NPATMI", "EBIT", "Net_Revenue"}, cfg.Data.Metrics)
	assert.Equal(t, 500.0, cfg.Data.DefaultMinMarketCap)
	assert.Equal(t, filepath.Join("data", "FA_processed.csv"), cfg.Data.FundamentalsPath())
	assert.Equal(t, filepath.Join("data", "MktCap_processed.csv"), cfg.Data.MarketCapPath())
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("FINBOARD_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("FINBOARD_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 8501, cfg.Server.Port)
}

func TestConfig_DataDirAndBaseURLOverride(t *testing.T) {
	t.Setenv("FINBOARD_DATA_DIR", "/srv/snapshots")
	t.Setenv("FINBOARD_TCBS_BASE_URL", "http://localhost:9999/")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "/srv/snapshots", cfg.Data.Dir)
	assert.Equal(t, "http://localhost:9999", cfg.Clients.TCBS.BaseURL)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finboard.toml")
	content := `
environment = "production"

[server]
port = 7000

[data]
dir = "/data"
default_period = "2024Q4"
metrics = ["EBIT"]

[cache]
price_ttl = "5m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/data", cfg.Data.Dir)
	assert.Equal(t, "2024Q4", cfg.Data.DefaultPeriod)
	assert.Equal(t, []string{"EBIT"}, cfg.Data.Metrics)
	assert.Equal(t, 5*time.Minute, cfg.Cache.GetPriceTTL())
	// untouched sections keep defaults
	assert.Equal(t, "FA_processed.csv", cfg.Data.FundamentalsFile)
	assert.Equal(t, 24*time.Hour, cfg.Cache.GetDataTTL())
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Server, cfg.Server)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EmptyMetricsFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finboard.toml")
	require.NoError(t, os.WriteFile(path, []byte("[data]\nmetrics = []\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Data.Metrics, 3)
	assert.True(t, cfg.HasMetric("NPATMI"))
	assert.False(t, cfg.HasMetric("EPS"))
}

func TestDurations_FallBackOnGarbage(t *testing.T) {
	tcbs := TCBSConfig{Timeout: "soon"}
	assert.Equal(t, 30*time.Second, tcbs.GetTimeout())

	cache := CacheConfig{PriceTTL: "", DataTTL: "x"}
	assert.Equal(t, FreshnessPriceHistory, cache.GetPriceTTL())
	assert.Equal(t, FreshnessEarningsData, cache.GetDataTTL())

	sess := SessionConfig{TTL: "-"}
	assert.Equal(t, FreshnessSession, sess.GetTTL())
}

func TestIsFresh(t *testing.T) {
	assert.False(t, IsFresh(time.Time{}, time.Hour))
	assert.True(t, IsFresh(time.Now().Add(-time.Minute), time.Hour))
	assert.False(t, IsFresh(time.Now().Add(-2*time.Hour), time.Hour))
}
