package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bobmcallan/finboard/internal/models"
	"github.com/bobmcallan/finboard/internal/services/earnings"
)

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = false
	return tw
}

// rightAlignFrom right-aligns every column from the given 1-based column number on.
func rightAlignFrom(tw table.Writer, first, count int) {
	cfgs := make([]table.ColumnConfig, 0, count)
	for i := first; i <= count; i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(cfgs)
}

func renderSummary(w io.Writer, summary *models.EarningsSummary) {
	if summary.Empty() {
		fmt.Fprintf(w, "No data for %s in %s.\n", summary.Metric, summary.TargetPeriod)
	} else {
		formatted := earnings.Format(summary)
		tw := newTable(w)
		hdr := make(table.Row, len(formatted.Headers))
		for i, h := range formatted.Headers {
			hdr[i] = h
		}
		tw.AppendHeader(hdr)
		for _, r := range formatted.Rows {
			row := make(table.Row, len(r))
			for i, cell := range r {
				row[i] = cell
			}
			tw.AppendRow(row)
		}
		rightAlignFrom(tw, 2, len(formatted.Headers))
		tw.Render()
	}

	if len(summary.UnknownMarketCap) > 0 {
		fmt.Fprintf(w, "Excluded, market cap unknown: %s\n", strings.Join(summary.UnknownMarketCap, ", "))
	}
}

func renderHistory(w io.Writer, history *models.PriceHistory, limit int) {
	if history.Empty() {
		fmt.Fprintf(w, "No price data available for %s.\n", history.Ticker)
		return
	}

	bars := history.Bars
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	tw := newTable(w)
	tw.SetTitle("%s from %s", history.Ticker, history.From.Format(models.DateLayout))
	tw.AppendHeader(table.Row{"Date", "Open", "High", "Low", "Close", "Volume"})
	for _, b := range bars {
		tw.AppendRow(table.Row{
			b.TradingDate.Format(models.DateLayout),
			fmt.Sprintf("%.2f", b.Open),
			fmt.Sprintf("%.2f", b.High),
			fmt.Sprintf("%.2f", b.Low),
			fmt.Sprintf("%.2f", b.Close),
			b.Volume,
		})
	}
	rightAlignFrom(tw, 2, 6)
	tw.Render()
}
