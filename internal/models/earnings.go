package models

import (
	"github.com/guregu/null/v6"
)

// FundamentalRecord is one row of the long-format fundamentals table.
type FundamentalRecord struct {
	Ticker     string  `json:"ticker"`
	Period     string  `json:"period"`      // e.g. "2025Q2"
	MetricCode string  `json:"metric_code"` // e.g. "NPATMI", "EBIT", "Net_Revenue"
	Value      float64 `json:"value"`
}

// MarketCapRecord is the latest market capitalisation of a ticker, in billions VND.
type MarketCapRecord struct {
	Ticker    string  `json:"ticker"`
	MarketCap float64 `json:"market_cap"`
}

// GrowthSummaryRow is one ticker's metric value and growth for the target period.
// Invalid null values mark undefined growth or an unknown market cap.
type GrowthSummaryRow struct {
	Ticker    string     `json:"ticker"`
	Period    string     `json:"period"`
	Value     float64    `json:"value"`
	YoYGrowth null.Float `json:"yoy_growth"`
	QoQGrowth null.Float `json:"qoq_growth"`
	MarketCap null.Float `json:"market_cap"`
}

// SummaryOrder selects the row ordering of an earnings summary.
type SummaryOrder string

const (
	// OrderDefault picks OrderMarketCapDesc when a cap table is supplied, else OrderValueAsc.
	OrderDefault       SummaryOrder = ""
	OrderMarketCapDesc SummaryOrder = "market_cap_desc"
	OrderValueAsc      SummaryOrder = "value_asc"
)

// SummaryOptions parameterises an earnings summary.
type SummaryOptions struct {
	TargetPeriod      string       `json:"period" validate:"required,max=16"`
	Metric            string       `json:"metric" validate:"required,max=64"`
	MinMarketCap      float64      `json:"min_market_cap" validate:"gte=0"`
	Order             SummaryOrder `json:"order,omitempty" validate:"omitempty,oneof=market_cap_desc value_asc"`
	RequireContiguous bool         `json:"require_contiguous,omitempty"`
}

// EarningsSummary is the result of aggregating one metric for one period.
type EarningsSummary struct {
	TargetPeriod  string             `json:"period"`
	Metric        string             `json:"metric"`
	MinMarketCap  float64            `json:"min_market_cap"`
	Order         SummaryOrder       `json:"order"`
	HasMarketCaps bool               `json:"has_market_caps"`
	Rows          []GrowthSummaryRow `json:"rows"`
	// Tickers with target-period data that were excluded because their market cap
	// is unknown while a positive threshold was requested.
	UnknownMarketCap []string `json:"unknown_market_cap,omitempty"`
}

// Empty reports whether the summary has no rows.
func (s *EarningsSummary) Empty() bool {
	return s == nil || len(s.Rows) == 0
}

// SummaryTable is a display-ready rendering of an EarningsSummary.
type SummaryTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}
