// Package interfaces defines service contracts for finboard
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/finboard/internal/models"
)

// EarningsStore provides the pre-processed fundamentals and market-cap snapshots
type EarningsStore interface {
	// Fundamentals returns every long-format fundamentals row.
	Fundamentals(ctx context.Context) ([]models.FundamentalRecord, error)

	// MarketCaps returns the market-cap table, or nil when no table is available.
	MarketCaps(ctx context.Context) ([]models.MarketCapRecord, error)

	// Reload re-reads both snapshots from disk.
	Reload(ctx context.Context) error

	// LoadedAt returns when the snapshots were last read.
	LoadedAt() time.Time
}
