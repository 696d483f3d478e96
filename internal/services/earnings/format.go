package earnings

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/finboard/internal/models"
)

// NotAvailable is shown in place of undefined growth or unknown market cap.
const NotAvailable = "N/A"

// valueScale converts raw VND statement values to billions.
const valueScale = 1e9

// Headers returns the display column headers for a summary.
func Headers(s *models.EarningsSummary) []string {
	return []string{
		"TICKER",
		fmt.Sprintf("%s %s (Billions VND)", s.TargetPeriod, s.Metric),
		"YoY Growth (%)",
		"QoQ Growth (%)",
		"Market Cap (Billions VND)",
	}
}

// Format renders a summary as display strings, keeping the summary's row order.
// Values are scaled to billions and ratios to percentages at two decimals.
func Format(s *models.EarningsSummary) *models.SummaryTable {
	table := &models.SummaryTable{Headers: Headers(s), Rows: [][]string{}}
	for _, r := range s.Rows {
		table.Rows = append(table.Rows, []string{
			r.Ticker,
			fmt.Sprintf("%.2f", r.Value/valueScale),
			formatPercent(r.YoYGrowth),
			formatPercent(r.QoQGrowth),
			formatNullable(r.MarketCap),
		})
	}
	return table
}

// WriteCSV writes the summary as UTF-8 comma-separated values with a header row.
// Cells stay numeric (billions, percentages); undefined values are left empty.
func WriteCSV(w io.Writer, s *models.EarningsSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers(s)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range s.Rows {
		record := []string{
			r.Ticker,
			strconv.FormatFloat(r.Value/valueScale, 'f', -1, 64),
			csvCell(r.YoYGrowth, 100),
			csvCell(r.QoQGrowth, 100),
			csvCell(r.MarketCap, 1),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the download name for a summary's CSV export.
func FileName(s *models.EarningsSummary) string {
	return fmt.Sprintf("earnings_summary_%s_%s.csv", s.TargetPeriod, s.Metric)
}

func formatPercent(f null.Float) string {
	if !f.Valid {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", f.Float64*100)
}

func formatNullable(f null.Float) string {
	if !f.Valid {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", f.Float64)
}

func csvCell(f null.Float, scale float64) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64*scale, 'f', -1, 64)
}
