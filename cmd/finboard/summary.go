package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bobmcallan/finboard/internal/models"
	"github.com/bobmcallan/finboard/internal/services/earnings"
)

func newSummaryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarise one metric for one period with YoY and QoQ growth",
		Example: `  finboard summary --metric NPATMI --period 2025Q2 --min-cap 1000
  finboard summary --metric EBIT --csv out.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := models.SummaryOptions{
				Metric:            v.GetString("metric"),
				TargetPeriod:      v.GetString("period"),
				MinMarketCap:      a.Config.Data.DefaultMinMarketCap,
				Order:             models.SummaryOrder(v.GetString("order")),
				RequireContiguous: v.GetBool("strict"),
			}
			if opts.Metric == "" {
				if metrics := a.EarningsService.Metrics(); len(metrics) > 0 {
					opts.Metric = metrics[0]
				}
			}
			if v.IsSet("min-cap") {
				opts.MinMarketCap = v.GetFloat64("min-cap")
			}

			summary, err := a.EarningsService.Summary(cmd.Context(), opts)
			if err != nil {
				return err
			}

			switch dest := v.GetString("csv"); dest {
			case "":
				renderSummary(cmd.OutOrStdout(), summary)
				return nil
			case "-":
				return earnings.WriteCSV(cmd.OutOrStdout(), summary)
			default:
				return writeCSVFile(cmd.OutOrStdout(), dest, summary)
			}
		},
	}

	cmd.Flags().String("metric", "", "metric code (default: first configured metric)")
	cmd.Flags().String("period", "", "target period, e.g. 2025Q2 (default from config)")
	cmd.Flags().Float64("min-cap", 0, "minimum market cap in billions VND (default from config)")
	cmd.Flags().String("order", "", "row order: market_cap_desc or value_asc")
	cmd.Flags().Bool("strict", false, "only compute growth across consecutive quarters")
	cmd.Flags().String("csv", "", "write CSV to this file instead of a table (- for stdout)")
	bindFlags(cmd, v)
	return cmd
}

func writeCSVFile(out io.Writer, path string, summary *models.EarningsSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := earnings.WriteCSV(f, summary); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d rows to %s\n", len(summary.Rows), path)
	return nil
}
