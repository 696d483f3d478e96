// Package chart builds and rasterises two-panel candlestick and volume charts
package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/finboard/internal/models"
)

// Layout of the two-panel chart.
const (
	DefaultHeight = 600
	DefaultWidth  = 900
	PriceRatio    = 0.7
)

// BuildCandlestick turns bars into a renderer-neutral chart, keeping bars on or after from.
// Each kept bar becomes one category on the date axis, so non-trading days leave no gaps.
// No bars give an empty chart, never an error.
func BuildCandlestick(bars []models.PriceBar, symbol string, from time.Time) *models.CandlestickChart {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	cutoff := models.DateOnly(from)

	c := &models.CandlestickChart{
		Symbol:          symbol,
		From:            cutoff,
		Title:           fmt.Sprintf("%s Price Chart", symbol),
		PriceTitle:      fmt.Sprintf("%s Price Chart", symbol),
		VolumeTitle:     "Volume",
		PriceAxisTitle:  "Price",
		VolumeAxisTitle: "Volume",
		DateAxisTitle:   "Date",
		Height:          DefaultHeight,
		PriceRatio:      PriceRatio,
		Categories:      []string{},
		Candles:         []models.Candle{},
		Volumes:         []models.VolumeBar{},
	}

	for _, b := range bars {
		if b.TradingDate.Before(cutoff) {
			continue
		}
		category := b.TradingDate.Format(models.DateLayout)
		color := models.ColorDown
		if b.Up() {
			color = models.ColorUp
		}

		c.Categories = append(c.Categories, category)
		c.Candles = append(c.Candles, models.Candle{
			Category: category,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
		})
		c.Volumes = append(c.Volumes, models.VolumeBar{
			Category: category,
			Volume:   b.Volume,
			Color:    color,
		})
	}

	return c
}
