package earnings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bobmcallan/finboard/internal/cache"
	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/interfaces"
	"github.com/bobmcallan/finboard/internal/models"
)

var (
	// ErrUnknownMetric is returned when a metric is not in the configured catalogue.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrInvalidOptions wraps summary option validation failures.
	ErrInvalidOptions = errors.New("invalid summary options")
)

// cacheKeyPrefix namespaces every memo entry owned by this service.
const cacheKeyPrefix = "earnings."

// Service implements EarningsService over an EarningsStore
type Service struct {
	store         interfaces.EarningsStore
	memo          *cache.Memo
	logger        *common.Logger
	validate      *validator.Validate
	metrics       []string
	defaultPeriod string
	dataTTL       time.Duration
}

// NewService creates a new earnings service
func NewService(store interfaces.EarningsStore, memo *cache.Memo, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		store:         store,
		memo:          memo,
		logger:        logger,
		validate:      validator.New(),
		metrics:       append([]string(nil), config.Data.Metrics...),
		defaultPeriod: config.Data.DefaultPeriod,
		dataTTL:       config.Cache.GetDataTTL(),
	}
}

// Metrics returns the metric catalogue in configured order.
func (s *Service) Metrics() []string {
	return append([]string(nil), s.metrics...)
}

// DefaultPeriod returns the period used when a request names none.
func (s *Service) DefaultPeriod() string {
	return s.defaultPeriod
}

func (s *Service) hasMetric(metric string) bool {
	for _, m := range s.metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// Summary validates opts, loads the snapshots and aggregates the requested metric.
// An empty TargetPeriod falls back to the default period.
func (s *Service) Summary(ctx context.Context, opts models.SummaryOptions) (*models.EarningsSummary, error) {
	opts.TargetPeriod = strings.TrimSpace(opts.TargetPeriod)
	opts.Metric = strings.TrimSpace(opts.Metric)
	if opts.TargetPeriod == "" {
		opts.TargetPeriod = s.defaultPeriod
	}

	if err := s.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if !s.hasMetric(opts.Metric) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, opts.Metric)
	}

	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	key := cache.Key(cacheKeyPrefix+"summary", opts.TargetPeriod, opts.Metric, opts.MinMarketCap, opts.Order, opts.RequireContiguous)
	return cache.Do(s.memo, key, s.dataTTL, func() (*models.EarningsSummary, error) {
		start := time.Now()
		facts, err := s.store.Fundamentals(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load fundamentals: %w", err)
		}
		caps, err := s.store.MarketCaps(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load market caps: %w", err)
		}

		summary := Summarize(facts, caps, opts)
		s.logger.Info().
			Str("period", opts.TargetPeriod).
			Str("metric", opts.Metric).
			Float64("min_market_cap", opts.MinMarketCap).
			Int("rows", len(summary.Rows)).
			Int("unknown_market_cap", len(summary.UnknownMarketCap)).
			Dur("elapsed", time.Since(start)).
			Msg("Earnings summary computed")
		return summary, nil
	})
}

// Periods lists the periods present for metric, newest first.
func (s *Service) Periods(ctx context.Context, metric string) ([]string, error) {
	if !s.hasMetric(metric) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	key := cache.Key(cacheKeyPrefix+"periods", metric)
	return cache.Do(s.memo, key, s.dataTTL, func() ([]string, error) {
		facts, err := s.store.Fundamentals(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load fundamentals: %w", err)
		}
		seen := make(map[string]bool)
		periods := []string{}
		for _, f := range facts {
			if f.MetricCode == metric && !seen[f.Period] {
				seen[f.Period] = true
				periods = append(periods, f.Period)
			}
		}
		sort.Sort(sort.Reverse(sort.StringSlice(periods)))
		return periods, nil
	})
}

// Refresh reloads the snapshots and drops every memoised earnings result.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.store.Reload(ctx); err != nil {
		return fmt.Errorf("failed to reload earnings snapshots: %w", err)
	}
	n := s.memo.Invalidate(cacheKeyPrefix)
	s.logger.Info().Int("invalidated", n).Msg("Earnings data refreshed")
	return nil
}

// ensureFresh reloads the snapshots once they are older than the data TTL.
func (s *Service) ensureFresh(ctx context.Context) error {
	loadedAt := s.store.LoadedAt()
	if loadedAt.IsZero() || common.IsFresh(loadedAt, s.dataTTL) {
		return nil
	}
	s.logger.Debug().Time("loaded_at", loadedAt).Msg("Earnings snapshots stale, reloading")
	return s.Refresh(ctx)
}

// Ensure Service implements EarningsService
var _ interfaces.EarningsService = (*Service)(nil)
