// Package prices serves cached price history and candlestick charts
package prices

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bobmcallan/finboard/internal/cache"
	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/interfaces"
	"github.com/bobmcallan/finboard/internal/models"
	"github.com/bobmcallan/finboard/internal/services/chart"
)

// ErrInvalidTicker is returned for symbols the quote API cannot accept.
var ErrInvalidTicker = errors.New("invalid ticker")

var tickerPattern = regexp.MustCompile(`^[A-Z0-9._-]{1,20}$`)

// cacheKeyPrefix namespaces every memo entry owned by this service.
const cacheKeyPrefix = "prices."

// NormalizeTicker upper-cases and validates a ticker symbol.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if !tickerPattern.MatchString(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	return t, nil
}

// Service implements PriceService
type Service struct {
	client interfaces.PriceClient
	memo   *cache.Memo
	logger *common.Logger
	ttl    time.Duration
}

// NewService creates a new prices service
func NewService(client interfaces.PriceClient, memo *cache.Memo, ttl time.Duration, logger *common.Logger) *Service {
	return &Service{
		client: client,
		memo:   memo,
		logger: logger,
		ttl:    ttl,
	}
}

// History returns daily bars for ticker from start, reusing a cached fetch for
// the same (ticker, start date) within the TTL. Failures are never cached.
func (s *Service) History(ctx context.Context, ticker string, start time.Time) (*models.PriceHistory, error) {
	symbol, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	startDay := models.DateOnly(start)

	key := cache.Key(cacheKeyPrefix+"history", symbol, startDay.Format(models.DateLayout))
	return cache.Do(s.memo, key, s.ttl, func() (*models.PriceHistory, error) {
		history, err := s.client.GetPriceHistory(ctx, symbol, startDay)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", symbol).Msg("Price history fetch failed")
			return nil, fmt.Errorf("failed to fetch price history for %s: %w", symbol, err)
		}
		return history, nil
	})
}

// Chart builds the candlestick artifact for ticker from start.
func (s *Service) Chart(ctx context.Context, ticker string, start time.Time) (*models.CandlestickChart, error) {
	history, err := s.History(ctx, ticker, start)
	if err != nil {
		return nil, err
	}
	return chart.BuildCandlestick(history.Bars, history.Ticker, start), nil
}

// ChartPNG renders the candlestick chart for ticker from start.
func (s *Service) ChartPNG(ctx context.Context, ticker string, start time.Time, width int) ([]byte, error) {
	c, err := s.Chart(ctx, ticker, start)
	if err != nil {
		return nil, err
	}
	return chart.RenderPNG(c, width)
}

// Invalidate drops every cached price history.
func (s *Service) Invalidate() int {
	return s.memo.Invalidate(cacheKeyPrefix)
}

// Ensure Service implements PriceService
var _ interfaces.PriceService = (*Service)(nil)
