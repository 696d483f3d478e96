package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/finboard/internal/services/prices"
)

// startFromQuery reads ?from=YYYY-MM-DD, defaulting to the start of the year.
func (s *Server) startFromQuery(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	start, err := prices.ParseStartDate(r.URL.Query().Get("from"), s.now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return start, true
}

// handlePriceHistory handles GET /api/prices/{ticker}?from=.
func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	start, ok := s.startFromQuery(w, r)
	if !ok {
		return
	}

	history, err := s.app.PriceService.History(r.Context(), ticker, start)
	if err != nil {
		WriteError(w, statusFor(err, http.StatusBadGateway), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

// handlePriceChart handles GET /api/prices/{ticker}/chart?from= with the chart artifact as JSON.
func (s *Server) handlePriceChart(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	start, ok := s.startFromQuery(w, r)
	if !ok {
		return
	}

	chart, err := s.app.PriceService.Chart(r.Context(), ticker, start)
	if err != nil {
		WriteError(w, statusFor(err, http.StatusBadGateway), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, chart)
}

// handlePriceChartPNG handles GET /api/prices/{ticker}/chart.png?from=&width=.
func (s *Server) handlePriceChartPNG(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	start, ok := s.startFromQuery(w, r)
	if !ok {
		return
	}

	width := 0
	if raw := r.URL.Query().Get("width"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "width must be an integer")
			return
		}
		width = v
	}

	png, err := s.app.PriceService.ChartPNG(r.Context(), ticker, start, width)
	if err != nil {
		WriteError(w, statusFor(err, http.StatusBadGateway), err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
