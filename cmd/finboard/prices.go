package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bobmcallan/finboard/internal/services/prices"
)

func newPricesCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prices <ticker>",
		Short: "Show daily price history, or render it as a candlestick chart",
		Example: `  finboard prices FPT --from 2025-01-01
  finboard prices VNM --png vnm.png --width 1200`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := prices.ParseStartDate(v.GetString("from"), time.Now())
			if err != nil {
				return err
			}

			a, err := openApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			if dest := v.GetString("png"); dest != "" {
				png, err := a.PriceService.ChartPNG(cmd.Context(), args[0], start, v.GetInt("width"))
				if err != nil {
					return err
				}
				if err := os.WriteFile(dest, png, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", dest, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote chart to %s\n", dest)
				return nil
			}

			history, err := a.PriceService.History(cmd.Context(), args[0], start)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), history, v.GetInt("limit"))
			return nil
		},
	}

	cmd.Flags().String("from", "", "start date YYYY-MM-DD (default: January 1st of this year)")
	cmd.Flags().Int("limit", 0, "show only the most recent N bars")
	cmd.Flags().String("png", "", "write the candlestick chart PNG to this file")
	cmd.Flags().Int("width", 0, "chart width in pixels")
	bindFlags(cmd, v)
	return cmd
}
