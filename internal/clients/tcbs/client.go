// Package tcbs provides a client for the TCBS public stock-insight API
package tcbs

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/interfaces"
	"github.com/bobmcallan/finboard/internal/models"
)

const (
	DefaultBaseURL   = "https://apipubaws.tcbs.com.vn"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	barsPath  = "/stock-insight/v1/stock/bars-long-term"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client implements the PriceClient interface against the TCBS bars endpoint
type Client struct {
	baseURL  string
	http     *resty.Client
	logger   *common.Logger
	limiter  *rate.Limiter
	now      func() time.Time
	location *time.Location
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			requestsPerSecond = DefaultRateLimit
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// WithClock overrides the clock used for the "to" timestamp
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// WithLocation sets the zone in which the start date's midnight is taken
func WithLocation(loc *time.Location) ClientOption {
	return func(c *Client) {
		c.location = loc
	}
}

// NewClient creates a new TCBS client.
// No API key is required and failed requests are never retried.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http: resty.New().
			SetTimeout(DefaultTimeout).
			SetRetryCount(0).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json"),
		limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:   common.NewSilentLogger(),
		now:      time.Now,
		location: time.Local,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx response from the quote API
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TCBS API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// GetPriceHistory retrieves daily bars for ticker from start (a calendar date) up to now.
func (c *Client) GetPriceHistory(ctx context.Context, ticker string, start time.Time) (*models.PriceHistory, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, c.location)
	to := c.now()

	c.logger.Debug().Str("ticker", ticker).Str("from", from.Format(models.DateLayout)).Msg("TCBS API request")

	begin := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ticker":     ticker,
			"type":       "stock",
			"resolution": "D",
			"from":       strconv.FormatInt(from.Unix(), 10),
			"to":         strconv.FormatInt(to.Unix(), 10),
		}).
		Get(c.baseURL + barsPath)
	elapsed := time.Since(begin)
	if err != nil {
		c.logger.Error().Err(err).Str("ticker", ticker).Dur("elapsed", elapsed).Msg("TCBS API request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if !resp.IsSuccess() {
		c.logger.Warn().Str("ticker", ticker).Int("status", resp.StatusCode()).Dur("elapsed", elapsed).Msg("TCBS API non-OK response")
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Message:    truncate(strings.TrimSpace(string(resp.Body())), 200),
			Endpoint:   barsPath,
		}
	}

	history, err := c.parseBars(resp.Body())
	if err != nil {
		return nil, err
	}
	history.Ticker = ticker
	history.From = models.DateOnly(from)
	history.To = to
	history.FetchedAt = time.Now()

	c.logger.Info().
		Str("ticker", ticker).
		Int("bars", len(history.Bars)).
		Bool("no_data", history.NoData).
		Dur("elapsed", elapsed).
		Msg("TCBS API call")

	return history, nil
}

// parseBars normalises the response body into an ascending history.
func (c *Client) parseBars(body []byte) (*models.PriceHistory, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	history := &models.PriceHistory{Bars: []models.PriceBar{}, Columns: []string{}}

	raw, ok := top["data"]
	if !ok || string(raw) == "null" {
		c.logger.Warn().Msg("No data found in TCBS response")
		history.NoData = true
		return history, nil
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode data array: %w", err)
	}

	seen := make(map[string]bool, len(models.PriceColumns))
	for _, row := range rows {
		for _, col := range models.PriceColumns {
			if _, ok := row[col]; ok {
				seen[col] = true
			}
		}
	}
	for _, col := range models.PriceColumns {
		if seen[col] {
			history.Columns = append(history.Columns, col)
		}
	}

	for _, row := range rows {
		dateRaw, ok := row[models.ColumnTradingDate]
		if !ok {
			continue
		}
		date, err := parseTradingDate(dateRaw)
		if err != nil {
			c.logger.Warn().Err(err).Str("trading_date", string(dateRaw)).Msg("Skipping bar with unparseable trading date")
			continue
		}

		bar := models.PriceBar{
			TradingDate: date,
			Open:        flexField(row, models.ColumnOpen),
			High:        flexField(row, models.ColumnHigh),
			Low:         flexField(row, models.ColumnLow),
			Close:       flexField(row, models.ColumnClose),
		}
		if vol := flexField(row, models.ColumnVolume); vol > 0 {
			bar.Volume = int64(math.Round(vol))
		}
		history.Bars = append(history.Bars, bar)
	}

	sort.SliceStable(history.Bars, func(i, j int) bool {
		return history.Bars[i].TradingDate.Before(history.Bars[j].TradingDate)
	})

	return history, nil
}

// isoLayouts are the string forms accepted for tradingDate, most specific first.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	models.DateLayout,
}

// parseTradingDate accepts an ISO-8601 string or epoch milliseconds (number or numeric string).
func parseTradingDate(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return models.DateOnly(time.UnixMilli(ms).UTC()), nil
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return models.DateOnly(t), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised trading date %q", s)
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("trading date is neither string nor number: %s", string(raw))
	}
	return models.DateOnly(time.UnixMilli(int64(ms)).UTC()), nil
}

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// flexField reads a numeric column, treating absent or malformed values as zero.
func flexField(row map[string]json.RawMessage, col string) float64 {
	raw, ok := row[col]
	if !ok {
		return 0
	}
	var f flexFloat64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return float64(f)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure Client implements PriceClient
var _ interfaces.PriceClient = (*Client)(nil)
