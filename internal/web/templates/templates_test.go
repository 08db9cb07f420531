package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{91771.55, "91771,55"},
		{0.1, "0,1"},
		{12, "12"},
		{-0.5, "-0,5"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in, 3); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLayout_EscapesTitleAndMessage(t *testing.T) {
	var buf bytes.Buffer
	page := Layout("<Trucks>", ErrorAlert("bad <b>", "retry", "FEED001"))
	require.NoError(t, page.Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "&lt;Trucks&gt;")
	assert.Contains(t, out, "bad &lt;b&gt;")
	assert.Contains(t, out, "Code: FEED001")
	assert.NotContains(t, out, "<b>")
}

func TestDayPage(t *testing.T) {
	unit := core.ClassifiedUnit{
		Unit: core.Unit{
			Kind:        core.KindTruck,
			Line:        2,
			ID:          "42",
			Plate:       "ABC1D23",
			GrossWeight: pgtype.Float8{Float64: 30, Valid: true},
			Metrics: map[core.Metric]core.MetricSlot{
				core.Cor: {
					Current:  pgtype.Float8{Float64: 150, Valid: true},
					Previous: pgtype.Float8{Float64: 210, Valid: true},
				},
			},
			DoublecheckURL: "https://lab.example/b/42",
		},
		Status:   core.StatusApproved,
		Complete: true,
		Decision: core.Decision{Narrative: "Released by terminal"},
	}

	var buf bytes.Buffer
	err := DayPage(DayPageData{
		FeedKey:   "unit",
		FeedLabel: "Trucks",
		Date:      "2025-03-14",
		Filter:    "all",
		Summary:   core.DaySummary{Count: 1, Tonnage: 30, Approved: 1},
		Units:     []core.ClassifiedUnit{unit},
		Skipped:   2,
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ABC1D23")
	assert.Contains(t, out, "210 → 150")
	assert.Contains(t, out, "Released by terminal")
	assert.Contains(t, out, "2 malformed rows skipped")
	assert.Contains(t, out, `href="/feeds/unit/days/2025-03-14?status=rejected"`)
	assert.Contains(t, out, `href="https://lab.example/b/42"`)
}

func TestDayPage_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DayPage(DayPageData{FeedLabel: "Ships"}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No units match this filter.")
}

func TestFeedIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FeedIndex([]FeedCard{{Key: "unit", Label: "Trucks"}}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Trucks")
	assert.Contains(t, buf.String(), `action="/feeds/unit/days"`)
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		name string
		unit core.ClassifiedUnit
		want string
	}{
		{"approved", core.ClassifiedUnit{Status: core.StatusApproved, Complete: true}, "approved"},
		{"apurado is always flagged elsewhere", core.ClassifiedUnit{Status: core.StatusApurado, Complete: true, HasOtherOutOfSpec: true}, "apurado"},
		{"rejected on RI only", core.ClassifiedUnit{Status: core.StatusRejected, Complete: true}, "rejected"},
		{"rejected with other metrics", core.ClassifiedUnit{Status: core.StatusRejected, Complete: true, HasOtherOutOfSpec: true}, "rejected *"},
		{"incomplete", core.ClassifiedUnit{Status: core.StatusRejected, HasOtherOutOfSpec: true}, "incomplete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusLabel(tt.unit))
		})
	}
}

func TestUnitRow_MarksStatus(t *testing.T) {
	var buf bytes.Buffer
	unit := core.ClassifiedUnit{
		Unit:              core.Unit{Kind: core.KindTruck, Line: 3, ID: "7", Plate: "ABC1D23"},
		Status:            core.StatusApurado,
		Complete:          true,
		HasOtherOutOfSpec: true,
		Decision:          core.Decision{Narrative: "Released by terminal"},
	}
	require.NoError(t, unitRow(unit).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `<tr data-status="apurado">`)
	assert.Contains(t, out, "<td>apurado</td>")
	assert.NotContains(t, out, "apurado *")
}
