package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/finboard/internal/cache"
	"github.com/bobmcallan/finboard/internal/clients/tcbs"
	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/interfaces"
	"github.com/bobmcallan/finboard/internal/services/earnings"
	"github.com/bobmcallan/finboard/internal/services/prices"
	"github.com/bobmcallan/finboard/internal/session"
	"github.com/bobmcallan/finboard/internal/storage/csvstore"
)

// App holds all initialized services, clients, and the MCP server.
// It is the shared core used by cmd/finboard-server and cmd/finboard.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Cache           *cache.Memo
	PriceClient     interfaces.PriceClient
	EarningsStore   interfaces.EarningsStore
	PriceService    interfaces.PriceService
	EarningsService interfaces.EarningsService
	Sessions        *session.Store
	MCPServer       *server.MCPServer
	StartupTime     time.Time

	scheduler *cron.Cron
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, FINBOARD_CONFIG,
// finboard.toml beside the binary, then config/finboard.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("FINBOARD_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "finboard.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/finboard.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes every service.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromBuildInfo()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(config, logger, nil), nil
}

// NewAppWithConfig wires the services around an already loaded config.
// A nil priceClient builds the TCBS client from config.
func NewAppWithConfig(config *common.Config, logger *common.Logger, priceClient interfaces.PriceClient) *App {
	startupStart := time.Now()

	if priceClient == nil {
		priceClient = tcbs.NewClient(
			tcbs.WithBaseURL(config.Clients.TCBS.BaseURL),
			tcbs.WithLogger(logger),
			tcbs.WithRateLimit(config.Clients.TCBS.RateLimit),
			tcbs.WithTimeout(config.Clients.TCBS.GetTimeout()),
		)
	}

	memo := cache.New(logger)
	store := csvstore.NewStore(logger, config.Data)

	priceService := prices.NewService(priceClient, memo, config.Cache.GetPriceTTL(), logger)
	earningsService := earnings.NewService(store, memo, config, logger)

	mcpServer := server.NewMCPServer(
		"finboard",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:          config,
		Logger:          logger,
		Cache:           memo,
		PriceClient:     priceClient,
		EarningsStore:   store,
		PriceService:    priceService,
		EarningsService: earningsService,
		Sessions:        session.NewStore(logger),
		MCPServer:       mcpServer,
		StartupTime:     startupStart,
	}

	a.registerTools()

	logger.Info().
		Str("data_dir", config.Data.Dir).
		Strs("metrics", config.Data.Metrics).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a
}

// ClearCache drops every memoised result. The next request recomputes.
func (a *App) ClearCache() int {
	return a.Cache.Clear()
}

// Close stops background work.
func (a *App) Close() {
	if a.scheduler != nil {
		ctx := a.scheduler.Stop()
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
			a.Logger.Warn().Msg("Scheduler stop timed out")
		}
		a.scheduler = nil
	}
}

// WarmEarnings loads the snapshots ahead of the first request.
func (a *App) WarmEarnings(ctx context.Context) {
	if _, err := a.EarningsStore.Fundamentals(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Earnings warm load failed")
	}
}
