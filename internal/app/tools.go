package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the finboard server version and status. Use this to verify connectivity."),
	)
}

// createGetPriceHistoryTool returns the get_price_history tool definition
func createGetPriceHistoryTool() mcp.Tool {
	return mcp.NewTool("get_price_history",
		mcp.WithDescription("Get daily OHLCV bars for a Vietnamese stock or index from the TCBS quote API, oldest first."),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("Ticker symbol (e.g., 'FPT', 'VNM', 'VNINDEX')"),
		),
		mcp.WithString("from",
			mcp.Description("Start date YYYY-MM-DD (default: January 1st of the current year)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Show only the most recent N bars (default: 30, max: 500)"),
		),
	)
}

// createEarningsSummaryTool returns the earnings_summary tool definition
func createEarningsSummaryTool() mcp.Tool {
	return mcp.NewTool("earnings_summary",
		mcp.WithDescription("Summarise one fundamentals metric for a reporting period: value, YoY and QoQ growth and market cap per ticker, filtered by a minimum market cap."),
		mcp.WithString("metric",
			mcp.Required(),
			mcp.Description("Metric code (e.g., 'NPATMI', 'EBIT', 'Net_Revenue')"),
		),
		mcp.WithString("period",
			mcp.Description("Reporting period label (e.g., '2025Q2'; default: configured period)"),
		),
		mcp.WithNumber("min_market_cap",
			mcp.Description("Minimum market cap in billions VND (default: configured threshold)"),
		),
		mcp.WithString("order",
			mcp.Description("Row order: market_cap_desc or value_asc (default: market cap when known)"),
			mcp.Enum("market_cap_desc", "value_asc"),
		),
		mcp.WithBoolean("strict_periods",
			mcp.Description("Only compare with exactly the previous quarter / same quarter last year (default: false)"),
		),
	)
}
