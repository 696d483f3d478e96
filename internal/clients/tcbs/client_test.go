package tcbs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finboard/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(
		WithBaseURL(srv.URL),
		WithClock(fixedClock),
		WithLocation(time.UTC),
	)
}

func TestGetPriceHistory_RequestShape(t *testing.T) {
	var captured *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.GetPriceHistory(context.Background(), "FPT", start)
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, barsPath, captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, url.Values{
		"ticker":     {"FPT"},
		"type":       {"stock"},
		"resolution": {"D"},
		"from":       {"1735689600"},
		"to":         {"1755253800"},
	}, q)
	assert.Equal(t, userAgent, captured.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", captured.Header.Get("Accept"))
}

func TestGetPriceHistory_ISODates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticker":"FPT","data":[
			{"tradingDate":"2025-01-03T00:00:00.000Z","open":101,"high":105,"low":100,"close":104,"volume":1200,"ticker":"FPT"},
			{"tradingDate":"2025-01-02T00:00:00.000Z","open":100,"high":102,"low":98,"close":99,"volume":1000,"ticker":"FPT"}
		]}`))
	}))
	defer srv.Close()

	history, err := newTestClient(srv).GetPriceHistory(context.Background(), "FPT", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, history.Bars, 2)
	assert.False(t, history.NoData)
	assert.Equal(t, "FPT", history.Ticker)
	assert.Equal(t, models.PriceColumns, history.Columns)

	// sorted ascending regardless of payload order
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), history.Bars[0].TradingDate)
	assert.Equal(t, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), history.Bars[1].TradingDate)
	assert.Equal(t, models.PriceBar{
		TradingDate: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		Open:        101, High: 105, Low: 100, Close: 104, Volume: 1200,
	}, history.Bars[1])
}

func TestGetPriceHistory_EpochMillisDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1735776000000 = 2025-01-02T00:00:00Z
		w.Write([]byte(`{"data":[{"tradingDate":1735776000000,"open":"10.5","high":11,"low":10,"close":10.8,"volume":"5000"}]}`))
	}))
	defer srv.Close()

	history, err := newTestClient(srv).GetPriceHistory(context.Background(), "VNM", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, history.Bars, 1)

	bar := history.Bars[0]
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), bar.TradingDate)
	assert.Equal(t, 10.5, bar.Open)
	assert.Equal(t, int64(5000), bar.Volume)
}

func TestParseTradingDate_Formats(t *testing.T) {
	want := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		raw  string
		desc string
	}{
		{`"2024-12-31T00:00:00.000Z"`, "iso with millis and Z"},
		{`"2024-12-31T09:15:00+07:00"`, "iso with offset keeps local calendar day"},
		{`"2024-12-31T09:15:00+0700"`, "iso with compact offset"},
		{`"2024-12-31T00:00:00"`, "iso without zone"},
		{`"2024-12-31"`, "bare date"},
		{`1735603200000`, "epoch millis number"},
		{`"1735603200000"`, "epoch millis string"},
	}

	for _, tt := range tests {
		got, err := parseTradingDate([]byte(tt.raw))
		if assert.NoError(t, err, tt.desc) {
			assert.Equal(t, want, got, tt.desc)
		}
	}

	_, err := parseTradingDate([]byte(`"yesterday"`))
	assert.Error(t, err)
	_, err = parseTradingDate([]byte(`true`))
	assert.Error(t, err)
}

func TestGetPriceHistory_MissingDataField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ticker not found"}`))
	}))
	defer srv.Close()

	history, err := newTestClient(srv).GetPriceHistory(context.Background(), "XXX", time.Now())
	require.NoError(t, err, "missing data is a valid empty outcome")
	assert.True(t, history.NoData)
	assert.True(t, history.Empty())
	assert.NotNil(t, history.Bars)
}

func TestGetPriceHistory_EmptyRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	history, err := newTestClient(srv).GetPriceHistory(context.Background(), "FPT", time.Now())
	require.NoError(t, err)
	assert.False(t, history.NoData)
	assert.Empty(t, history.Bars)
	assert.Empty(t, history.Columns)
}

func TestGetPriceHistory_ProjectsKnownColumnsOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no high/low; extra columns dropped
		w.Write([]byte(`{"data":[{"tradingDate":"2025-02-03","open":5,"close":6,"volume":10,"value":60,"foreignBuy":3}]}`))
	}))
	defer srv.Close()

	history, err := newTestClient(srv).GetPriceHistory(context.Background(), "HPG", time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{"tradingDate", "open", "close", "volume"}, history.Columns)
	assert.False(t, history.HasColumn("high"))
	require.Len(t, history.Bars, 1)
	assert.Equal(t, 0.0, history.Bars[0].High)
}

func TestGetPriceHistory_SkipsBadDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"tradingDate":"garbage","open":1},{"open":2},{"tradingDate":"2025-02-03","open":3,"volume":-5}]}`))
	}))
	defer srv.Close()

	history, err := newTestClient(srv).GetPriceHistory(context.Background(), "HPG", time.Now())
	require.NoError(t, err)
	require.Len(t, history.Bars, 1)
	assert.Equal(t, 3.0, history.Bars[0].Open)
	assert.Equal(t, int64(0), history.Bars[0].Volume, "negative volume clamps to zero")
}

func TestGetPriceHistory_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetPriceHistory(context.Background(), "FPT", time.Now())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "status: 503")
}

func TestGetPriceHistory_NoRetryOnFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetPriceHistory(context.Background(), "FPT", time.Now())
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGetPriceHistory_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	client := NewClient(WithBaseURL(base), WithTimeout(2*time.Second))
	_, err := client.GetPriceHistory(context.Background(), "FPT", time.Now())
	assert.Error(t, err)
}

func TestGetPriceHistory_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetPriceHistory(context.Background(), "FPT", time.Now())
	assert.Error(t, err)
}
