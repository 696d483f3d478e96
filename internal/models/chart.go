package models

import "time"

// Candle is one OHLC entry on the categorical date axis.
type Candle struct {
	Category string  `json:"category"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
}

// Volume bar colours.
const (
	ColorUp   = "green"
	ColorDown = "red"
)

// VolumeBar is one volume entry, coloured by the direction of its day.
type VolumeBar struct {
	Category string `json:"category"`
	Volume   int64  `json:"volume"`
	Color    string `json:"color"`
}

// CandlestickChart is a renderer-neutral two-panel price/volume chart.
type CandlestickChart struct {
	Symbol          string      `json:"symbol"`
	From            time.Time   `json:"from"`
	Title           string      `json:"title"`
	PriceTitle      string      `json:"price_title"`
	VolumeTitle     string      `json:"volume_title"`
	PriceAxisTitle  string      `json:"price_axis_title"`
	VolumeAxisTitle string      `json:"volume_axis_title"`
	DateAxisTitle   string      `json:"date_axis_title"`
	Height          int         `json:"height"`
	PriceRatio      float64     `json:"price_ratio"` // share of height given to the price panel
	Categories      []string    `json:"categories"`
	Candles         []Candle    `json:"candles"`
	Volumes         []VolumeBar `json:"volumes"`
}

// Empty reports whether the chart has no trading days.
func (c *CandlestickChart) Empty() bool {
	return c == nil || len(c.Categories) == 0
}
