// Package earnings aggregates fundamentals snapshots into growth summaries
package earnings

import (
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/finboard/internal/models"
)

// Offsets, in periods, for quarter-over-quarter and year-over-year growth.
const (
	qoqOffset = 1
	yoyOffset = 4
)

// Summarize computes value, YoY and QoQ growth for opts.Metric at opts.TargetPeriod.
//
// caps == nil means no market-cap table was supplied: no threshold is applied and
// every row carries an unknown market cap. Growth is computed over each ticker's
// own period-sorted sequence by position, so a missing quarter in the table is not
// detected unless opts.RequireContiguous is set.
//
// Summarize is pure: identical inputs give identical output.
func Summarize(facts []models.FundamentalRecord, caps []models.MarketCapRecord, opts models.SummaryOptions) *models.EarningsSummary {
	hasCaps := caps != nil
	summary := &models.EarningsSummary{
		TargetPeriod:  opts.TargetPeriod,
		Metric:        opts.Metric,
		MinMarketCap:  opts.MinMarketCap,
		Order:         resolveOrder(opts.Order, hasCaps),
		HasMarketCaps: hasCaps,
		Rows:          []models.GrowthSummaryRow{},
	}

	capByTicker := make(map[string]float64, len(caps))
	for _, c := range caps {
		capByTicker[c.Ticker] = c.MarketCap
	}

	// Step 1: eligible tickers
	eligible := make(map[string]bool)
	var unknown []string
	for _, f := range facts {
		if f.Period != opts.TargetPeriod || f.MetricCode != opts.Metric || eligible[f.Ticker] {
			continue
		}
		if hasCaps {
			mc, ok := capByTicker[f.Ticker]
			if !ok {
				if opts.MinMarketCap > 0 {
					unknown = appendUnique(unknown, f.Ticker)
					continue
				}
			} else if mc < opts.MinMarketCap {
				continue
			}
		}
		eligible[f.Ticker] = true
	}
	sort.Strings(unknown)
	summary.UnknownMarketCap = unknown

	if len(eligible) == 0 {
		return summary
	}

	// Step 2: every period of the metric for eligible tickers, ordered (ticker, period)
	series := make([]models.FundamentalRecord, 0, len(eligible)*8)
	for _, f := range facts {
		if f.MetricCode == opts.Metric && eligible[f.Ticker] {
			series = append(series, f)
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		if series[i].Ticker != series[j].Ticker {
			return series[i].Ticker < series[j].Ticker
		}
		return series[i].Period < series[j].Period
	})

	// Steps 3-5: growth per ticker run, keep the target period
	for start := 0; start < len(series); {
		end := start
		for end < len(series) && series[end].Ticker == series[start].Ticker {
			end++
		}
		run := series[start:end]
		for i, rec := range run {
			if rec.Period != opts.TargetPeriod {
				continue
			}
			row := models.GrowthSummaryRow{
				Ticker:    rec.Ticker,
				Period:    rec.Period,
				Value:     rec.Value,
				QoQGrowth: growthAt(run, i, qoqOffset, opts.RequireContiguous),
				YoYGrowth: growthAt(run, i, yoyOffset, opts.RequireContiguous),
			}
			if mc, ok := capByTicker[rec.Ticker]; ok {
				row.MarketCap = null.FloatFrom(mc)
			}
			summary.Rows = append(summary.Rows, row)
		}
		start = end
	}

	sortRows(summary.Rows, summary.Order)
	return summary
}

// growthAt returns run[i]/run[i-offset] - 1, or an invalid null when the
// earlier period is missing, the denominator is zero or the ratio is not finite.
func growthAt(run []models.FundamentalRecord, i, offset int, contiguous bool) null.Float {
	if i < offset {
		return null.Float{}
	}
	prev := run[i-offset]
	if prev.Value == 0 {
		return null.Float{}
	}
	if contiguous && !periodsApart(prev.Period, run[i].Period, offset) {
		return null.Float{}
	}
	g := run[i].Value/prev.Value - 1
	if math.IsInf(g, 0) || math.IsNaN(g) {
		return null.Float{}
	}
	return null.FloatFrom(g)
}

var quarterLabel = regexp.MustCompile(`^(\d{4})Q([1-4])$`)

// quarterIndex maps "2025Q2" to a running quarter count.
func quarterIndex(period string) (int, bool) {
	m := quarterLabel.FindStringSubmatch(period)
	if m == nil {
		return 0, false
	}
	year, _ := strconv.Atoi(m[1])
	q, _ := strconv.Atoi(m[2])
	return year*4 + q - 1, true
}

// periodsApart reports whether later is exactly n quarters after earlier.
// Labels that are not YYYYQn cannot be checked and fail the test.
func periodsApart(earlier, later string, n int) bool {
	a, okA := quarterIndex(earlier)
	b, okB := quarterIndex(later)
	return okA && okB && b-a == n
}

func resolveOrder(order models.SummaryOrder, hasCaps bool) models.SummaryOrder {
	if order != models.OrderDefault {
		return order
	}
	if hasCaps {
		return models.OrderMarketCapDesc
	}
	return models.OrderValueAsc
}

// sortRows orders rows in place. Ties, and unknown market caps, fall back to ticker order.
func sortRows(rows []models.GrowthSummaryRow, order models.SummaryOrder) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch order {
		case models.OrderMarketCapDesc:
			if a.MarketCap.Valid != b.MarketCap.Valid {
				return a.MarketCap.Valid
			}
			if a.MarketCap.Valid && a.MarketCap.Float64 != b.MarketCap.Float64 {
				return a.MarketCap.Float64 > b.MarketCap.Float64
			}
		case models.OrderValueAsc:
			if a.Value != b.Value {
				return a.Value < b.Value
			}
		}
		return a.Ticker < b.Ticker
	})
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
