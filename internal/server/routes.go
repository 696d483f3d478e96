package server

import (
	"net/http"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/finboard/internal/common"
)

// registerRoutes sets up pages, REST API routes and the MCP endpoint on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// MCP over Streamable HTTP
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.app.MCPServer,
		mcpserver.WithStateLess(true),
	))

	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/cache/clear", s.handleCacheClear)

	// Prices
	mux.HandleFunc("/api/prices/", s.routePrices)

	// Earnings
	mux.HandleFunc("/api/earnings/summary.csv", s.handleEarningsSummaryCSV)
	mux.HandleFunc("/api/earnings/summary", s.handleEarningsSummary)
	mux.HandleFunc("/api/earnings/metrics", s.handleEarningsMetrics)
	mux.HandleFunc("/api/earnings/periods", s.handleEarningsPeriods)
	mux.HandleFunc("/api/earnings/refresh", s.handleEarningsRefresh)

	// Session
	mux.HandleFunc("/api/session/roster", s.handleRoster)
	mux.HandleFunc("/api/session", s.handleSession)

	// Pages
	mux.HandleFunc("/prices", s.handlePricesPage)
	mux.HandleFunc("/earnings", s.handleEarningsPage)
	mux.HandleFunc("/roster", s.handleRosterPage)
	mux.HandleFunc("/", s.handleIndexPage)
}

// routePrices dispatches /api/prices/{ticker}[/chart|/chart.png].
func (s *Server) routePrices(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/prices/")
	ticker, sub, _ := strings.Cut(path, "/")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	switch sub {
	case "":
		s.handlePriceHistory(w, r, ticker)
	case "chart":
		s.handlePriceChart(w, r, ticker)
	case "chart.png":
		s.handlePriceChartPNG(w, r, ticker)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleCacheClear handles POST /api/cache/clear.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	n := s.app.ClearCache()
	WriteJSON(w, http.StatusOK, map[string]int{"cleared": n})
}
