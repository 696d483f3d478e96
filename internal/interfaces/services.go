// Package interfaces defines service contracts for finboard
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/finboard/internal/models"
)

// PriceService fetches (or reuses cached) price history and builds charts
type PriceService interface {
	History(ctx context.Context, ticker string, start time.Time) (*models.PriceHistory, error)
	Chart(ctx context.Context, ticker string, start time.Time) (*models.CandlestickChart, error)
	ChartPNG(ctx context.Context, ticker string, start time.Time, width int) ([]byte, error)
}

// EarningsService aggregates the earnings snapshots
type EarningsService interface {
	Summary(ctx context.Context, opts models.SummaryOptions) (*models.EarningsSummary, error)
	Metrics() []string
	Periods(ctx context.Context, metric string) ([]string, error)
	DefaultPeriod() string
	Refresh(ctx context.Context) error
}
