package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgtype"
)

func classified(status Status, complete bool, weight pgtype.Float8, cor pgtype.Float8) ClassifiedUnit {
	return ClassifiedUnit{
		Unit: Unit{
			GrossWeight: weight,
			Metrics:     map[Metric]MetricSlot{Cor: {Current: cor}},
		},
		Status:   status,
		Complete: complete,
	}
}

func TestAggregator_AverageMetric_ZeroWeight(t *testing.T) {
	agg := NewAggregator(DefaultCalendar())
	units := []ClassifiedUnit{
		classified(StatusApproved, true, f8(10), f8(1000)),
		classified(StatusApproved, true, f8(0), f8(2000)),
	}

	got := agg.AverageMetric(units, Cor)
	if !got.Weighted.Valid || !almostEqual(got.Weighted.Float64, 1000) {
		t.Errorf("Weighted = %+v, want 1000", got.Weighted)
	}
	if !got.Arithmetic.Valid || !almostEqual(got.Arithmetic.Float64, 1500) {
		t.Errorf("Arithmetic = %+v, want 1500", got.Arithmetic)
	}
	if got.Count != 2 || got.WeightedCount != 1 {
		t.Errorf("Count/WeightedCount = %d/%d, want 2/1", got.Count, got.WeightedCount)
	}
}

func TestAggregator_AverageMetric_NoReadings(t *testing.T) {
	agg := NewAggregator(DefaultCalendar())
	units := []ClassifiedUnit{
		classified(StatusApproved, true, f8(10), pgtype.Float8{}),
		classified(StatusApproved, true, pgtype.Float8{}, pgtype.Float8{}),
	}

	got := agg.AverageMetric(units, Cor)
	if got.Arithmetic.Valid || got.Weighted.Valid {
		t.Errorf("AverageMetric = %+v, want both absent", got)
	}
}

func TestAggregator_AggregateDay(t *testing.T) {
	agg := NewAggregator(DefaultCalendar())
	units := []ClassifiedUnit{
		classified(StatusApproved, true, f8(10), f8(900)),
		classified(StatusApproved, true, f8(12.5), f8(900)),
		classified(StatusApurado, true, f8(11), f8(1300)),
		classified(StatusRejected, true, f8(9), f8(900)),
		classified(StatusApproved, false, pgtype.Float8{}, f8(900)),
		classified(StatusRejected, false, f8(5), f8(900)),
	}

	got := agg.AggregateDay(units)
	want := DaySummary{
		Count:      6,
		Tonnage:    47.5,
		Approved:   2,
		Apurado:    1,
		Rejected:   1,
		Incomplete: 2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AggregateDay mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregator_Filter(t *testing.T) {
	agg := NewAggregator(DefaultCalendar())
	units := []ClassifiedUnit{
		classified(StatusApproved, true, f8(10), f8(900)),
		classified(StatusApurado, true, f8(10), f8(1300)),
		classified(StatusApproved, false, f8(10), f8(900)),
	}

	tests := []struct {
		filter StatusFilter
		want   int
	}{
		{FilterAll, 3},
		{"", 3},
		{FilterApproved, 1},
		{FilterApurado, 1},
		{FilterRejected, 0},
	}

	for _, tt := range tests {
		if got := len(agg.Filter(units, tt.filter)); got != tt.want {
			t.Errorf("len(Filter(%q)) = %d, want %d", tt.filter, got, tt.want)
		}
	}

	// Averages follow the filter rather than a cached partition.
	approved := agg.AverageMetric(agg.Filter(units, FilterApproved), Cor)
	apurado := agg.AverageMetric(agg.Filter(units, FilterApurado), Cor)
	if approved.Arithmetic.Float64 != 900 || apurado.Arithmetic.Float64 != 1300 {
		t.Errorf("filtered averages = %v / %v, want 900 / 1300", approved.Arithmetic.Float64, apurado.Arithmetic.Float64)
	}
}

func TestAggregator_AggregateMonth(t *testing.T) {
	agg := NewAggregator(DefaultCalendar())
	days := map[string][]ClassifiedUnit{
		"2025-03-14": {
			classified(StatusApproved, true, f8(10), f8(1000)),
			classified(StatusApurado, true, f8(10), f8(1300)),
		},
		"2025-03-02": {
			classified(StatusApproved, true, f8(20), f8(700)),
		},
		"2025-04-01": {
			classified(StatusApproved, true, f8(99), f8(1)),
		},
	}

	got, err := agg.AggregateMonth("2025-03", days, FilterApproved)
	if err != nil {
		t.Fatalf("AggregateMonth() error = %v", err)
	}

	if got.Label != "Março 2025" {
		t.Errorf("Label = %q, want Março 2025", got.Label)
	}
	if len(got.Days) != 2 || got.Days[0].Date != "2025-03-02" || got.Days[1].Date != "2025-03-14" {
		t.Fatalf("Days = %+v, want 2025-03-02 then 2025-03-14", got.Days)
	}
	if got.Total.Count != 2 || got.Total.Approved != 2 || got.Total.Tonnage != 30 {
		t.Errorf("Total = %+v, want 2 approved units, 30 t", got.Total)
	}

	cor := got.Averages[0]
	if cor.Metric != Cor || !almostEqual(cor.Weighted.Float64, 800) {
		t.Errorf("COR weighted = %v, want 800", cor.Weighted.Float64)
	}
}

func TestAggregator_AggregateMonth_InvalidMonth(t *testing.T) {
	agg := NewAggregator(DefaultCalendar())
	_, err := agg.AggregateMonth("2025-13", nil, FilterAll)
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("AggregateMonth() error = %v, want ErrInvalidDate", err)
	}
}

func TestCalendar_MonthLabel(t *testing.T) {
	cal := DefaultCalendar()
	if got := cal.MonthLabel(2025, time.January); got != "Janeiro 2025" {
		t.Errorf("MonthLabel(January) = %q", got)
	}

	custom := Calendar{MonthNames: [12]string{"Jan", "Feb", "Mar"}}
	if got := custom.MonthLabel(2025, time.March); got != "Mar 2025" {
		t.Errorf("custom MonthLabel = %q, want Mar 2025", got)
	}
}

func TestEngine_ClassifyAllPreservesOrder(t *testing.T) {
	e := DefaultEngine()
	a := completeTruck()
	b := completeTruck()
	b.ID = "2"
	b = withMetric(b, Ri, MetricSlot{Current: f8(900)})

	got := e.ClassifyAll([]Unit{a, b})
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("ClassifyAll order = %+v", got)
	}
	if got[1].Status != StatusRejected || !got[1].Complete {
		t.Errorf("second unit = %q complete=%v, want rejected complete", got[1].Status, got[1].Complete)
	}
}
