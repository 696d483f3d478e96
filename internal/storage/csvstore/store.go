// Package csvstore loads the pre-processed earnings snapshots from CSV files.
package csvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/interfaces"
	"github.com/bobmcallan/finboard/internal/models"
)

// fundamentalRow mirrors FA_processed.csv. Numeric cells are kept as text so a
// single bad cell skips its row instead of failing the whole file.
type fundamentalRow struct {
	Ticker  string `csv:"TICKER"`
	Date    string `csv:"DATE"`
	KeyCode string `csv:"KEYCODE"`
	Value   string `csv:"VALUE"`
}

// marketCapRow mirrors MktCap_processed.csv.
type marketCapRow struct {
	Ticker    string `csv:"TICKER"`
	MarketCap string `csv:"CUR_MKT_CAP"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store reads both snapshots wholesale and keeps them in memory until Reload.
type Store struct {
	fundamentalsPath string
	marketCapPath    string
	logger           *common.Logger

	mu       sync.RWMutex
	loaded   bool
	facts    []models.FundamentalRecord
	caps     []models.MarketCapRecord
	loadedAt time.Time
}

// NewStore creates a store over the configured snapshot files. Nothing is read until first use.
func NewStore(logger *common.Logger, config common.DataConfig) *Store {
	return &Store{
		fundamentalsPath: config.FundamentalsPath(),
		marketCapPath:    config.MarketCapPath(),
		logger:           logger,
	}
}

// Fundamentals returns the fundamentals table, loading it on first use.
func (s *Store) Fundamentals(ctx context.Context) ([]models.FundamentalRecord, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facts, nil
}

// MarketCaps returns the market-cap table, or nil when the file does not exist.
func (s *Store) MarketCaps(ctx context.Context) ([]models.MarketCapRecord, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps, nil
}

// LoadedAt returns when the snapshots were last read, zero before the first load.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Reload(ctx)
}

// Reload re-reads both files. On error the previously loaded tables are kept.
func (s *Store) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	facts, err := s.readFundamentals()
	if err != nil {
		return err
	}
	caps, err := s.readMarketCaps()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.facts = facts
	s.caps = caps
	s.loaded = true
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info().
		Int("fundamentals", len(facts)).
		Int("market_caps", len(caps)).
		Bool("has_market_caps", caps != nil).
		Dur("elapsed", time.Since(start)).
		Msg("Earnings snapshots loaded")
	return nil
}

func (s *Store) readFundamentals() ([]models.FundamentalRecord, error) {
	var rows []fundamentalRow
	found, err := readCSV(s.fundamentalsPath, &rows)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Warn().Str("path", s.fundamentalsPath).Msg("Fundamentals file not found, using empty table")
		return []models.FundamentalRecord{}, nil
	}

	type factKey struct{ ticker, period, metric string }
	index := make(map[factKey]int, len(rows))
	facts := make([]models.FundamentalRecord, 0, len(rows))
	skipped, duplicates := 0, 0

	for _, r := range rows {
		ticker := strings.TrimSpace(r.Ticker)
		period := strings.TrimSpace(r.Date)
		metric := strings.TrimSpace(r.KeyCode)
		value, ok := parseNumber(r.Value)
		if ticker == "" || period == "" || metric == "" || !ok {
			skipped++
			continue
		}

		rec := models.FundamentalRecord{Ticker: ticker, Period: period, MetricCode: metric, Value: value}
		key := factKey{ticker, period, metric}
		if i, dup := index[key]; dup {
			facts[i] = rec
			duplicates++
			continue
		}
		index[key] = len(facts)
		facts = append(facts, rec)
	}

	if skipped > 0 || duplicates > 0 {
		s.logger.Warn().
			Str("path", s.fundamentalsPath).
			Int("skipped", skipped).
			Int("duplicates", duplicates).
			Msg("Fundamentals rows dropped or collapsed")
	}
	return facts, nil
}

func (s *Store) readMarketCaps() ([]models.MarketCapRecord, error) {
	var rows []marketCapRow
	found, err := readCSV(s.marketCapPath, &rows)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Warn().Str("path", s.marketCapPath).Msg("Market cap file not found, no threshold will apply")
		return nil, nil
	}

	index := make(map[string]int, len(rows))
	caps := make([]models.MarketCapRecord, 0, len(rows))
	skipped := 0

	for _, r := range rows {
		ticker := strings.TrimSpace(r.Ticker)
		mc, ok := parseNumber(r.MarketCap)
		if ticker == "" || !ok {
			skipped++
			continue
		}
		rec := models.MarketCapRecord{Ticker: ticker, MarketCap: mc}
		if i, dup := index[ticker]; dup {
			caps[i] = rec
			continue
		}
		index[ticker] = len(caps)
		caps = append(caps, rec)
	}

	if skipped > 0 {
		s.logger.Warn().Str("path", s.marketCapPath).Int("skipped", skipped).Msg("Market cap rows dropped")
	}
	return caps, nil
}

// readCSV decodes path into out. found is false when the file does not exist.
func readCSV(path string, out interface{}) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return true, nil
	}

	if err := gocsv.UnmarshalBytes(data, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return true, nil
		}
		return true, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return true, nil
}

// parseNumber accepts plain decimal text; empty, NaN and infinite cells are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Ensure Store implements EarningsStore
var _ interfaces.EarningsStore = (*Store)(nil)
