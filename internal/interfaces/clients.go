// Package interfaces defines service contracts for finboard
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/finboard/internal/models"
)

// PriceClient provides daily OHLCV history from a quote API
type PriceClient interface {
	// GetPriceHistory retrieves daily bars from start up to now.
	// A payload without data yields an empty history with NoData set, not an error.
	GetPriceHistory(ctx context.Context, ticker string, start time.Time) (*models.PriceHistory, error)
}
