// Package common provides shared utilities for finboard
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for finboard
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Data        DataConfig    `toml:"data"`
	Clients     ClientsConfig `toml:"clients"`
	Cache       CacheConfig   `toml:"cache"`
	Session     SessionConfig `toml:"session"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DataConfig locates the pre-processed earnings snapshots and sets dashboard defaults.
type DataConfig struct {
	Dir                 string   `toml:"dir"`
	FundamentalsFile    string   `toml:"fundamentals_file"`
	MarketCapFile       string   `toml:"market_cap_file"`
	DefaultPeriod       string   `toml:"default_period"`
	Metrics             []string `toml:"metrics"`
	DefaultMinMarketCap float64  `toml:"default_min_market_cap"` // billions VND
}

// FundamentalsPath returns the full path of the long-format fundamentals CSV.
func (d DataConfig) FundamentalsPath() string {
	return filepath.Join(d.Dir, d.FundamentalsFile)
}

// MarketCapPath returns the full path of the market-cap CSV.
func (d DataConfig) MarketCapPath() string {
	return filepath.Join(d.Dir, d.MarketCapFile)
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	TCBS TCBSConfig `toml:"tcbs"`
}

// TCBSConfig holds TCBS quote API configuration
type TCBSConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *TCBSConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CacheConfig holds the explicit memo cache policy.
type CacheConfig struct {
	PriceTTL      string `toml:"price_ttl"`
	DataTTL       string `toml:"data_ttl"`
	SweepSchedule string `toml:"sweep_schedule"` // cron expression
}

// GetPriceTTL returns how long fetched price series stay cached.
func (c *CacheConfig) GetPriceTTL() time.Duration {
	d, err := time.ParseDuration(c.PriceTTL)
	if err != nil {
		return FreshnessPriceHistory
	}
	return d
}

// GetDataTTL returns how long loaded CSV tables stay cached.
func (c *CacheConfig) GetDataTTL() time.Duration {
	d, err := time.ParseDuration(c.DataTTL)
	if err != nil {
		return FreshnessEarningsData
	}
	return d
}

// SessionConfig controls browser session lifetime.
type SessionConfig struct {
	TTL string `toml:"ttl"`
}

// GetTTL returns the idle lifetime of a session.
func (c *SessionConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return FreshnessSession
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8501,
		},
		Data: DataConfig{
			Dir:                 "data",
			FundamentalsFile:    "FA_processed.csv",
			MarketCapFile:       "MktCap_processed.csv",
			DefaultPeriod:       "2025Q2",
			Metrics:             []string{"NPATMI", "EBIT", "Net_Revenue"},
			DefaultMinMarketCap: 500,
		},
		Clients: ClientsConfig{
			TCBS: TCBSConfig{
				BaseURL:   "https://apipubaws.tcbs.com.vn",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Cache: CacheConfig{
			PriceTTL:      "1h",
			DataTTL:       "24h",
			SweepSchedule: "@every 10m",
		},
		Session: SessionConfig{
			TTL: "12h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if len(config.Data.Metrics) == 0 {
		config.Data.Metrics = NewDefaultConfig().Data.Metrics
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINBOARD_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FINBOARD_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FINBOARD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FINBOARD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("FINBOARD_DATA_DIR"); dir != "" {
		config.Data.Dir = dir
	}

	if url := os.Getenv("FINBOARD_TCBS_BASE_URL"); url != "" {
		config.Clients.TCBS.BaseURL = strings.TrimRight(url, "/")
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// HasMetric reports whether metric is in the configured catalogue.
func (c *Config) HasMetric(metric string) bool {
	for _, m := range c.Data.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}
