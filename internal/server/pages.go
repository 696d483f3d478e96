package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/finboard/internal/common"
	"github.com/bobmcallan/finboard/internal/models"
	"github.com/bobmcallan/finboard/internal/services/chart"
	"github.com/bobmcallan/finboard/internal/services/earnings"
	"github.com/bobmcallan/finboard/internal/services/prices"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the templates rendered inside the shared layout.
var pageNames = []string{"index", "prices", "earnings", "roster"}

// latestBars is how many recent bars the prices page tabulates.
const latestBars = 10

type pageRenderer struct {
	logger *common.Logger
	pages  map[string]*template.Template
}

func newPageRenderer(logger *common.Logger) *pageRenderer {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format(models.DateLayout) },
		"join": strings.Join,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		))
	}
	return &pageRenderer{logger: logger, pages: pages}
}

// pageData is the value every page template executes against.
type pageData struct {
	Page    string
	Title   string
	Version string
	Error   string
	Data    interface{}
}

// render executes a page into a buffer first so a template failure never sends a partial page.
func (p *pageRenderer) render(w http.ResponseWriter, status int, data pageData) {
	tmpl, ok := p.pages[data.Page]
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data.Version = common.GetVersion()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.Error().Err(err).Str("template", data.Page).Msg("Failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	s.pages.render(w, http.StatusOK, pageData{Page: "index", Title: "Home"})
}

type pricesPageData struct {
	Ticker   string
	From     string
	Width    int
	ChartURL string
	History  *models.PriceHistory
	Latest   []models.PriceBar
}

// handlePricesPage renders the ticker form and, once a ticker is given, the chart.
func (s *Server) handlePricesPage(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess := s.session(w, r)
	sel := sess.Selection()
	q := r.URL.Query()

	data := &pricesPageData{Width: chart.DefaultWidth}
	page := pageData{Page: "prices", Title: "Prices", Data: data}

	data.Ticker = strings.TrimSpace(q.Get("ticker"))
	data.From = strings.TrimSpace(q.Get("from"))
	submitted := data.Ticker != ""
	if !submitted {
		data.Ticker = sel.Ticker
		if data.Ticker == "" {
			data.Ticker = "VNINDEX"
		}
		if data.From == "" {
			data.From = sel.StartDate
		}
	}

	start, err := prices.ParseStartDate(data.From, s.now())
	if err != nil {
		page.Error = err.Error()
		s.pages.render(w, http.StatusBadRequest, page)
		return
	}
	data.From = start.Format(models.DateLayout)

	if !submitted {
		s.pages.render(w, http.StatusOK, page)
		return
	}

	ticker, err := prices.NormalizeTicker(data.Ticker)
	if err != nil {
		page.Error = err.Error()
		s.pages.render(w, http.StatusBadRequest, page)
		return
	}
	data.Ticker = ticker

	history, err := s.app.PriceService.History(r.Context(), ticker, start)
	if err != nil {
		page.Error = fmt.Sprintf("Error loading data: %v", err)
		s.pages.render(w, http.StatusBadGateway, page)
		return
	}

	sess.UpdateSelection(func(sel *models.Selection) {
		sel.Ticker = ticker
		sel.StartDate = data.From
	})

	data.History = history
	data.ChartURL = fmt.Sprintf("/api/prices/%s/chart.png?from=%s&width=%d", url.PathEscape(ticker), data.From, data.Width)
	data.Latest = history.Bars
	if len(data.Latest) > latestBars {
		data.Latest = data.Latest[len(data.Latest)-latestBars:]
	}
	s.pages.render(w, http.StatusOK, page)
}

type earningsPageData struct {
	Metrics []string
	Periods []string
	Options models.SummaryOptions
	Summary *models.EarningsSummary
	Table   *models.SummaryTable
	CSVURL  string
}

// handleEarningsPage renders the earnings filters and summary table.
// Inputs not given in the query fall back to the session's last selection, then config.
func (s *Server) handleEarningsPage(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess := s.session(w, r)
	sel := sess.Selection()
	q := r.URL.Query()
	svc := s.app.EarningsService

	data := &earningsPageData{Metrics: svc.Metrics()}
	page := pageData{Page: "earnings", Title: "Earnings", Data: data}

	opts, err := s.summaryOptionsFromQuery(r)
	if err != nil {
		page.Error = err.Error()
		s.pages.render(w, http.StatusBadRequest, page)
		return
	}
	if q.Get("metric") == "" && sel.Metric != "" {
		opts.Metric = sel.Metric
	}
	if q.Get("period") == "" && sel.Period != "" {
		opts.TargetPeriod = sel.Period
	}
	if q.Get("min_cap") == "" && sel.Metric != "" {
		opts.MinMarketCap = sel.MinMarketCap
	}
	data.Options = opts

	periods, err := svc.Periods(r.Context(), opts.Metric)
	if err != nil {
		page.Error = err.Error()
		s.pages.render(w, statusFor(err, http.StatusInternalServerError), page)
		return
	}
	data.Periods = periods
	if len(periods) == 0 {
		data.Periods = []string{opts.TargetPeriod}
	}

	summary, err := svc.Summary(r.Context(), opts)
	if err != nil {
		page.Error = err.Error()
		s.pages.render(w, statusFor(err, http.StatusInternalServerError), page)
		return
	}

	sess.UpdateSelection(func(sel *models.Selection) {
		sel.Metric = summary.Metric
		sel.Period = summary.TargetPeriod
		sel.MinMarketCap = summary.MinMarketCap
	})

	data.Summary = summary
	data.Table = earnings.Format(summary)
	csvQuery := url.Values{}
	csvQuery.Set("metric", summary.Metric)
	csvQuery.Set("period", summary.TargetPeriod)
	csvQuery.Set("min_cap", strconv.FormatFloat(summary.MinMarketCap, 'f', -1, 64))
	if opts.Order != models.OrderDefault {
		csvQuery.Set("order", string(opts.Order))
	}
	if opts.RequireContiguous {
		csvQuery.Set("strict", "true")
	}
	data.CSVURL = "/api/earnings/summary.csv?" + csvQuery.Encode()

	s.pages.render(w, http.StatusOK, page)
}

type rosterPageData struct {
	Entries []models.RosterEntry
}

// handleRosterPage lists the session roster; POST appends one entry from the form.
func (s *Server) handleRosterPage(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	sess := s.session(w, r)
	page := pageData{Page: "roster", Title: "Roster"}

	if r.Method == http.MethodPost {
		entry := models.RosterEntry{
			FirstName: r.FormValue("first_name"),
			LastName:  r.FormValue("last_name"),
		}
		status := http.StatusBadRequest
		if raw := strings.TrimSpace(r.FormValue("age")); raw != "" {
			age, err := strconv.Atoi(raw)
			if err != nil {
				page.Error = "age must be a whole number"
				page.Data = &rosterPageData{Entries: sess.Entries()}
				s.pages.render(w, status, page)
				return
			}
			entry.Age = age
		}
		if err := sess.AddEntry(entry); err != nil {
			page.Error = err.Error()
			page.Data = &rosterPageData{Entries: sess.Entries()}
			s.pages.render(w, status, page)
			return
		}
		http.Redirect(w, r, "/roster", http.StatusSeeOther)
		return
	}

	page.Data = &rosterPageData{Entries: sess.Entries()}
	s.pages.render(w, http.StatusOK, page)
}
