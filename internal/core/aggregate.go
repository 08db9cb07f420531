package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ClassifiedUnit is a Unit with every derived field attached.
type ClassifiedUnit struct {
	Unit
	Status            Status   `json:"status"`
	HasOtherOutOfSpec bool     `json:"hasOtherOutOfSpec"`
	HadDoublecheck    bool     `json:"houveDoublecheck"`
	Complete          bool     `json:"complete"`
	Decision          Decision `json:"decision"`
}

// Calendar holds presentation constants used by month rollups.
type Calendar struct {
	MonthNames [12]string
}

// DefaultCalendar uses pt-BR month names.
func DefaultCalendar() Calendar {
	return Calendar{MonthNames: [12]string{
		"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
	}}
}

// MonthLabel renders "Março 2025".
func (c Calendar) MonthLabel(year int, month time.Month) string {
	if month < time.January || month > time.December {
		return fmt.Sprintf("%02d/%d", int(month), year)
	}
	return fmt.Sprintf("%s %d", c.MonthNames[month-1], year)
}

// DaySummary counts one day's units. Tier tallies cover complete units only;
// incomplete units still count toward Count and Tonnage.
type DaySummary struct {
	Date       string  `json:"date,omitempty"`
	Count      int     `json:"count"`
	Tonnage    float64 `json:"tonnage"`
	Approved   int     `json:"approvedCount"`
	Apurado    int     `json:"apuradoCount"`
	Rejected   int     `json:"rejectedCount"`
	Incomplete int     `json:"incompleteCount"`
}

// add folds other into s.
func (s *DaySummary) add(other DaySummary) {
	s.Count += other.Count
	s.Tonnage += other.Tonnage
	s.Approved += other.Approved
	s.Apurado += other.Apurado
	s.Rejected += other.Rejected
	s.Incomplete += other.Incomplete
}

// Average is the arithmetic and weight-weighted mean of one metric.
type Average struct {
	Metric        Metric        `json:"metric"`
	Arithmetic    pgtype.Float8 `json:"arithmetic"`
	Weighted      pgtype.Float8 `json:"weighted"`
	Count         int           `json:"count"`
	WeightedCount int           `json:"weightedCount"`
}

// MonthSummary rolls up several days.
type MonthSummary struct {
	Month    string       `json:"month"`
	Label    string       `json:"label"`
	Filter   StatusFilter `json:"filter"`
	Days     []DaySummary `json:"days"`
	Total    DaySummary   `json:"total"`
	Averages []Average    `json:"averages"`
}

// Aggregator computes rollups over classified units.
type Aggregator struct {
	calendar Calendar
}

// NewAggregator creates an aggregator with the given calendar.
func NewAggregator(cal Calendar) *Aggregator {
	return &Aggregator{calendar: cal}
}

// Filter returns the units passing f, keeping input order. Any filter other
// than all keeps complete units only, since an incomplete unit has no settled tier.
func (a *Aggregator) Filter(units []ClassifiedUnit, f StatusFilter) []ClassifiedUnit {
	if f == FilterAll || f == "" {
		return units
	}
	out := make([]ClassifiedUnit, 0, len(units))
	for _, u := range units {
		if u.Complete && string(u.Status) == string(f) {
			out = append(out, u)
		}
	}
	return out
}

// AggregateDay tallies units; the partition is recomputed on every call.
func (a *Aggregator) AggregateDay(units []ClassifiedUnit) DaySummary {
	var s DaySummary
	for _, u := range units {
		s.Count++
		if u.GrossWeight.Valid {
			s.Tonnage += u.GrossWeight.Float64
		}
		if !u.Complete {
			s.Incomplete++
			continue
		}
		switch u.Status {
		case StatusApproved:
			s.Approved++
		case StatusApurado:
			s.Apurado++
		case StatusRejected:
			s.Rejected++
		}
	}
	return s
}

// AverageMetric averages m over units with a reading. Units without a positive
// weight count toward the arithmetic mean but are left out of the weighted one.
func (a *Aggregator) AverageMetric(units []ClassifiedUnit, m Metric) Average {
	avg := Average{Metric: m}
	var sum, wsum, weights float64
	for _, u := range units {
		v := u.Value(m)
		if !v.Valid {
			continue
		}
		avg.Count++
		sum += v.Float64
		if positive(u.GrossWeight) {
			avg.WeightedCount++
			wsum += v.Float64 * u.GrossWeight.Float64
			weights += u.GrossWeight.Float64
		}
	}
	if avg.Count > 0 {
		avg.Arithmetic = pgtype.Float8{Float64: sum / float64(avg.Count), Valid: true}
	}
	if weights > 0 {
		avg.Weighted = pgtype.Float8{Float64: wsum / weights, Valid: true}
	}
	return avg
}

// AverageAll averages every metric in display order.
func (a *Aggregator) AverageAll(units []ClassifiedUnit) []Average {
	out := make([]Average, 0, len(Metrics))
	for _, m := range Metrics {
		out = append(out, a.AverageMetric(units, m))
	}
	return out
}

// AggregateMonth rolls up days keyed by ISO date ("2025-03-14") under filter f.
// month is "YYYY-MM"; days outside it are ignored.
func (a *Aggregator) AggregateMonth(month string, days map[string][]ClassifiedUnit, f StatusFilter) (MonthSummary, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return MonthSummary{}, fmt.Errorf("%w: month %q", ErrInvalidDate, month)
	}

	ms := MonthSummary{
		Month:  month,
		Label:  a.calendar.MonthLabel(start.Year(), start.Month()),
		Filter: f,
		Days:   []DaySummary{},
	}

	dates := make([]string, 0, len(days))
	for d := range days {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil || t.Year() != start.Year() || t.Month() != start.Month() {
			continue
		}
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var all []ClassifiedUnit
	for _, d := range dates {
		units := a.Filter(days[d], f)
		ds := a.AggregateDay(units)
		ds.Date = d
		ms.Days = append(ms.Days, ds)
		ms.Total.add(ds)
		all = append(all, units...)
	}
	ms.Averages = a.AverageAll(all)
	return ms, nil
}

// Engine wires one limit set through evaluation, reconciliation and rollups.
type Engine struct {
	Evaluator  *Evaluator
	Reconciler *Reconciler
	Aggregator *Aggregator
}

// NewEngine builds an engine from a limit set and options.
func NewEngine(limits Limits, opts ReconcilerOptions, cal Calendar) *Engine {
	eval := NewEvaluator(limits)
	return &Engine{
		Evaluator:  eval,
		Reconciler: NewReconciler(eval, opts),
		Aggregator: NewAggregator(cal),
	}
}

// DefaultEngine uses the contractual limits.
func DefaultEngine() *Engine {
	return NewEngine(DefaultLimits(), DefaultReconcilerOptions(), DefaultCalendar())
}

// Classify derives every output field for one unit.
func (e *Engine) Classify(u Unit) ClassifiedUnit {
	d := e.Reconciler.Decide(u)
	return ClassifiedUnit{
		Unit:              u,
		Status:            d.Status,
		HasOtherOutOfSpec: d.HasOtherOutOfSpec,
		HadDoublecheck:    d.HadDoublecheck,
		Complete:          d.State != StateDataIncomplete,
		Decision:          d,
	}
}

// ClassifyAll classifies units, preserving order.
func (e *Engine) ClassifyAll(units []Unit) []ClassifiedUnit {
	out := make([]ClassifiedUnit, len(units))
	for i, u := range units {
		out[i] = e.Classify(u)
	}
	return out
}
