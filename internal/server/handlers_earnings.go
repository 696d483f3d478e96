package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/finboard/internal/models"
	"github.com/bobmcallan/finboard/internal/services/earnings"
)

// summaryOptionsFromQuery reads ?metric=&period=&min_cap=&order=&strict=.
// Missing inputs default to the first catalogue metric, the default period and the
// configured minimum market cap.
func (s *Server) summaryOptionsFromQuery(r *http.Request) (models.SummaryOptions, error) {
	q := r.URL.Query()
	svc := s.app.EarningsService

	opts := models.SummaryOptions{
		Metric:            strings.TrimSpace(q.Get("metric")),
		TargetPeriod:      strings.TrimSpace(q.Get("period")),
		Order:             models.SummaryOrder(strings.TrimSpace(q.Get("order"))),
		RequireContiguous: queryBool(r, "strict"),
	}
	if opts.Metric == "" {
		if metrics := svc.Metrics(); len(metrics) > 0 {
			opts.Metric = metrics[0]
		}
	}
	if opts.TargetPeriod == "" {
		opts.TargetPeriod = svc.DefaultPeriod()
	}

	minCap, err := queryFloat(r, "min_cap", s.app.Config.Data.DefaultMinMarketCap)
	if err != nil {
		return opts, fmt.Errorf("%w: min_cap must be a number", earnings.ErrInvalidOptions)
	}
	opts.MinMarketCap = minCap
	return opts, nil
}

// handleEarningsSummary handles GET /api/earnings/summary.
func (s *Server) handleEarningsSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	opts, err := s.summaryOptionsFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.app.EarningsService.Summary(r.Context(), opts)
	if err != nil {
		WriteError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"table":   earnings.Format(summary),
	})
}

// handleEarningsSummaryCSV handles GET /api/earnings/summary.csv as a download.
func (s *Server) handleEarningsSummaryCSV(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	opts, err := s.summaryOptionsFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.app.EarningsService.Summary(r.Context(), opts)
	if err != nil {
		WriteError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}

	var buf bytes.Buffer
	if err := earnings.WriteCSV(&buf, summary); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write earnings CSV")
		WriteError(w, http.StatusInternalServerError, "Failed to write CSV")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", earnings.FileName(summary)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleEarningsMetrics handles GET /api/earnings/metrics.
func (s *Server) handleEarningsMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"metrics":        s.app.EarningsService.Metrics(),
		"default_period": s.app.EarningsService.DefaultPeriod(),
	})
}

// handleEarningsPeriods handles GET /api/earnings/periods?metric=.
func (s *Server) handleEarningsPeriods(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	metric := strings.TrimSpace(r.URL.Query().Get("metric"))
	if metric == "" {
		WriteError(w, http.StatusBadRequest, "metric is required")
		return
	}

	periods, err := s.app.EarningsService.Periods(r.Context(), metric)
	if err != nil {
		WriteError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"metric":  metric,
		"periods": periods,
	})
}

// handleEarningsRefresh handles POST /api/earnings/refresh.
func (s *Server) handleEarningsRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.app.EarningsService.Refresh(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
