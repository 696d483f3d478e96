// Package models defines data structures for finboard
package models

import (
	"time"
)

// DateLayout is the calendar-date format used on the wire and in chart categories.
const DateLayout = "2006-01-02"

// Price column names, in the order they are projected from the quote payload.
const (
	ColumnTradingDate = "tradingDate"
	ColumnOpen        = "open"
	ColumnHigh        = "high"
	ColumnLow         = "low"
	ColumnClose       = "close"
	ColumnVolume      = "volume"
)

// PriceColumns lists the six documented OHLCV columns.
var PriceColumns = []string{ColumnTradingDate, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// PriceBar is one trading day of OHLCV data. TradingDate is a calendar date at UTC midnight.
type PriceBar struct {
	TradingDate time.Time `json:"trading_date"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      int64     `json:"volume"`
}

// Up reports whether the bar closed at or above its open.
func (b PriceBar) Up() bool {
	return b.Close >= b.Open
}

// PriceHistory is an ascending daily series for one ticker.
type PriceHistory struct {
	Ticker    string     `json:"ticker"`
	From      time.Time  `json:"from"`
	To        time.Time  `json:"to"`
	Bars      []PriceBar `json:"bars"`
	Columns   []string   `json:"columns"`           // columns present in the source payload
	NoData    bool       `json:"no_data,omitempty"` // payload carried no data field at all
	FetchedAt time.Time  `json:"fetched_at"`
}

// Empty reports whether the history has no bars to show.
func (h *PriceHistory) Empty() bool {
	return h == nil || len(h.Bars) == 0
}

// HasColumn reports whether the source payload carried the named column.
func (h *PriceHistory) HasColumn(name string) bool {
	if h == nil {
		return false
	}
	for _, c := range h.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// DateOnly truncates t to its calendar date at UTC midnight, keeping the date as seen in t's own zone.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
