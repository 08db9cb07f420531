package web

import (
	"net/http"
	"net/url"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/JonMunkholm/qualityfeed/internal/logging"
	"github.com/JonMunkholm/qualityfeed/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// FeedInfo describes a registered feed for listings.
type FeedInfo struct {
	Key   string        `json:"key"`
	Label string        `json:"label"`
	Kind  core.UnitKind `json:"kind"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status        string                  `json:"status"`
	Limiter       core.FetchLimiterStatus `json:"limiter"`
	CachedEntries int                     `json:"cachedEntries"`
}

// UnitsResponse lists the classified units of one day.
type UnitsResponse struct {
	Feed      string                `json:"feed"`
	Date      string                `json:"date"`
	Filter    core.StatusFilter     `json:"filter"`
	TotalRows int                   `json:"totalRows"`
	Units     []core.ClassifiedUnit `json:"units"`
	Skipped   []core.SkippedRow     `json:"skipped"`
}

func feedInfos() []FeedInfo {
	defs := core.Feeds()
	out := make([]FeedInfo, len(defs))
	for i, d := range defs {
		out[i] = FeedInfo{Key: d.Key, Label: d.Label, Kind: d.Kind}
	}
	return out
}

// handleHealth reports limiter and cache state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, HealthResponse{
		Status:        "ok",
		Limiter:       s.service.LimiterStatus(),
		CachedEntries: s.service.CachedEntries(),
	})
}

// handleListFeeds returns every registered feed.
func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, feedInfos())
}

// handleDayUnits returns the classified units of one day under ?status=.
func (s *Server) handleDayUnits(w http.ResponseWriter, r *http.Request) {
	feed := chi.URLParam(r, "feed")
	date := chi.URLParam(r, "date")
	filter := core.ParseStatusFilter(r.URL.Query().Get("status"))

	day, err := s.service.LoadDay(r.Context(), feed, date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	units := s.service.Engine().Aggregator.Filter(day.Units, filter)
	if units == nil {
		units = []core.ClassifiedUnit{}
	}
	skipped := day.Skipped
	if skipped == nil {
		skipped = []core.SkippedRow{}
	}
	writeJSON(w, r, UnitsResponse{
		Feed:      day.Feed,
		Date:      day.Date,
		Filter:    filter,
		TotalRows: day.TotalRows,
		Units:     units,
		Skipped:   skipped,
	})
}

// handleDaySummary returns tallies and averages for one day.
func (s *Server) handleDaySummary(w http.ResponseWriter, r *http.Request) {
	feed := chi.URLParam(r, "feed")
	date := chi.URLParam(r, "date")
	filter := core.ParseStatusFilter(r.URL.Query().Get("status"))

	report, err := s.service.DayReport(r.Context(), feed, date, filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, report)
}

// handleMonthSummary rolls up every published day of a month.
func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	feed := chi.URLParam(r, "feed")
	month := chi.URLParam(r, "month")
	filter := core.ParseStatusFilter(r.URL.Query().Get("status"))

	if _, ok := core.Feed(feed); !ok {
		s.respondError(w, r, core.ErrUnknownFeed)
		return
	}

	summary, err := s.service.MonthReport(r.Context(), feed, month, filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, summary)
}

// handleIndex renders the feed listing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var cards []templates.FeedCard
	for _, f := range feedInfos() {
		cards = append(cards, templates.FeedCard{Key: f.Key, Label: f.Label})
	}
	s.render(w, r, templates.Layout("Quality feeds", templates.FeedIndex(cards)))
}

// handleDayRedirect turns the index form's ?date= into the day page URL.
func (s *Server) handleDayRedirect(w http.ResponseWriter, r *http.Request) {
	feed := chi.URLParam(r, "feed")
	date := r.URL.Query().Get("date")
	if err := core.ValidateDate(date); err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/feeds/"+url.PathEscape(feed)+"/days/"+date, http.StatusSeeOther)
}

// handleDayPage renders one day's units with their decisions.
func (s *Server) handleDayPage(w http.ResponseWriter, r *http.Request) {
	feed := chi.URLParam(r, "feed")
	date := chi.URLParam(r, "date")
	filter := core.ParseStatusFilter(r.URL.Query().Get("status"))

	day, err := s.service.LoadDay(r.Context(), feed, date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	agg := s.service.Engine().Aggregator
	units := agg.Filter(day.Units, filter)
	summary := agg.AggregateDay(units)
	summary.Date = date

	def, _ := core.Feed(feed)
	page := templates.DayPage(templates.DayPageData{
		FeedKey:   def.Key,
		FeedLabel: def.Label,
		Date:      date,
		Filter:    string(filter),
		Summary:   summary,
		Averages:  agg.AverageAll(units),
		Units:     units,
		Skipped:   len(day.Skipped),
	})
	s.render(w, r, templates.Layout(def.Label+" "+date, page))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}
