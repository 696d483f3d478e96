package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/interfaces"
	"github.com/bobmcallan/finboard/internal/models"
	"github.com/bobmcallan/finboard/internal/services/earnings"
	"github.com/bobmcallan/finboard/internal/services/prices"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 500
)

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createGetPriceHistoryTool(), handleGetPriceHistory(a.PriceService, logger, time.Now))
	s.AddTool(createEarningsSummaryTool(), handleEarningsSummary(a.EarningsService, a.Config.Data.DefaultMinMarketCap, logger))
}

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("finboard\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// handleGetPriceHistory implements the get_price_history tool
func handleGetPriceHistory(priceService interfaces.PriceService, logger *common.Logger, now func() time.Time) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil || strings.TrimSpace(ticker) == "" {
			return errorResult("Error: ticker parameter is required"), nil
		}

		start, err := prices.ParseStartDate(request.GetString("from", ""), now())
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		limit := request.GetInt("limit", defaultHistoryLimit)
		if limit <= 0 {
			limit = defaultHistoryLimit
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		history, err := priceService.History(ctx, ticker, start)
		if err != nil {
			logger.Error().Err(err).Str("ticker", ticker).Msg("Get price history failed")
			return errorResult(fmt.Sprintf("Price history error: %v", err)), nil
		}

		return textResult(formatPriceHistory(history, limit)), nil
	}
}

// handleEarningsSummary implements the earnings_summary tool
func handleEarningsSummary(earningsService interfaces.EarningsService, defaultMinCap float64, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metric, err := request.RequireString("metric")
		if err != nil || strings.TrimSpace(metric) == "" {
			return errorResult("Error: metric parameter is required. Available: " + strings.Join(earningsService.Metrics(), ", ")), nil
		}

		opts := models.SummaryOptions{
			TargetPeriod:      request.GetString("period", earningsService.DefaultPeriod()),
			Metric:            metric,
			MinMarketCap:      request.GetFloat("min_market_cap", defaultMinCap),
			Order:             models.SummaryOrder(request.GetString("order", "")),
			RequireContiguous: request.GetBool("strict_periods", false),
		}

		summary, err := earningsService.Summary(ctx, opts)
		if err != nil {
			logger.Error().Err(err).Str("metric", metric).Msg("Earnings summary failed")
			return errorResult(fmt.Sprintf("Earnings summary error: %v", err)), nil
		}

		return textResult(formatEarningsSummary(summary)), nil
	}
}

// formatPriceHistory formats the most recent limit bars as a markdown table
func formatPriceHistory(h *models.PriceHistory, limit int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s Price History\n\n", h.Ticker))
	sb.WriteString(fmt.Sprintf("**From:** %s\n", h.From.Format(models.DateLayout)))

	if h.Empty() {
		if h.NoData {
			sb.WriteString("\nNo data found in response.\n")
		} else {
			sb.WriteString("\nNo trading days in range.\n")
		}
		return sb.String()
	}

	bars := h.Bars
	sb.WriteString(fmt.Sprintf("**Bars:** %d", len(bars)))
	if len(bars) > limit {
		sb.WriteString(fmt.Sprintf(" (showing last %d)", limit))
		bars = bars[len(bars)-limit:]
	}
	sb.WriteString("\n\n")

	sb.WriteString("| Date | Open | High | Low | Close | Volume |\n")
	sb.WriteString("|------|------|------|-----|-------|--------|\n")
	for _, b := range bars {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %d |\n",
			b.TradingDate.Format(models.DateLayout), b.Open, b.High, b.Low, b.Close, b.Volume))
	}
	return sb.String()
}

// formatEarningsSummary formats a summary as a markdown table
func formatEarningsSummary(s *models.EarningsSummary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s %s Earnings Summary\n\n", s.TargetPeriod, s.Metric))
	if s.HasMarketCaps {
		sb.WriteString(fmt.Sprintf("**Min Market Cap:** %.0f billion VND\n", s.MinMarketCap))
	} else {
		sb.WriteString("**Market Cap:** not available, no threshold applied\n")
	}
	sb.WriteString(fmt.Sprintf("**Tickers:** %d\n\n", len(s.Rows)))

	if s.Empty() {
		sb.WriteString("No tickers match this period, metric and market cap.\n")
	} else {
		table := earnings.Format(s)
		sb.WriteString("| " + strings.Join(table.Headers, " | ") + " |\n")
		sb.WriteString("|" + strings.Repeat("---|", len(table.Headers)) + "\n")
		for _, row := range table.Rows {
			sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
	}

	if len(s.UnknownMarketCap) > 0 {
		sb.WriteString(fmt.Sprintf("\n_Excluded (market cap unknown): %s_\n", strings.Join(s.UnknownMarketCap, ", ")))
	}
	return sb.String()
}

// Helper functions

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
