// Package templates renders the HTML report pages. Components are written in
// .templ files; run `templ generate` after editing them.
package templates

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

// FeedCard is one entry of the feed index.
type FeedCard struct {
	Key   string
	Label string
}

// DayPageData is everything the day page shows.
type DayPageData struct {
	FeedKey   string
	FeedLabel string
	Date      string
	Filter    string
	Summary   core.DaySummary
	Averages  []core.Average
	Units     []core.ClassifiedUnit
	Skipped   int
}

var filters = []core.StatusFilter{core.FilterAll, core.FilterApproved, core.FilterApurado, core.FilterRejected}

func filterURL(d DayPageData, f core.StatusFilter) string {
	return "/feeds/" + d.FeedKey + "/days/" + d.Date + "?status=" + string(f)
}

func feedDaysURL(key string) string {
	return "/feeds/" + key + "/days"
}

// rowStatus drives the row colour in the stylesheet.
func rowStatus(u core.ClassifiedUnit) string {
	if !u.Complete {
		return "incomplete"
	}
	return string(u.Status)
}

// statusLabel marks rejected units that fail on more than RI with "*".
func statusLabel(u core.ClassifiedUnit) string {
	if !u.Complete {
		return "incomplete"
	}
	if u.Status == core.StatusRejected && u.HasOtherOutOfSpec {
		return string(u.Status) + " *"
	}
	return string(u.Status)
}

// metricCell shows "previous → current" for rechecked metrics.
func metricCell(s core.MetricSlot) string {
	if s.Rechecked() {
		return formatFloat(s.Previous) + " → " + formatFloat(s.Current)
	}
	return formatFloat(s.Current)
}

func formatFloat(v pgtype.Float8) string {
	if !v.Valid {
		return "-"
	}
	return formatNumber(v.Float64, 3)
}

// formatNumber uses pt-BR decimal commas.
func formatNumber(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return strings.Replace(s, ".", ",", 1)
}
