package core

import "github.com/jackc/pgx/v5/pgtype"

// Evaluator judges metric readings against a limit set.
//
// Tier order: a violation of a rejecting metric (RI by default) rejects the
// unit; any other violation flags it as apurado for review; otherwise it is
// approved. An absent reading is never a violation.
type Evaluator struct {
	limits Limits
}

// NewEvaluator creates an evaluator over a private copy of limits.
func NewEvaluator(limits Limits) *Evaluator {
	return &Evaluator{limits: limits.clone()}
}

// Limits returns a copy of the evaluator's limit set.
func (e *Evaluator) Limits() Limits {
	return e.limits.clone()
}

// OutOfSpec reports whether v violates the bound for m.
func (e *Evaluator) OutOfSpec(m Metric, v pgtype.Float8) bool {
	if !v.Valid {
		return false
	}
	return !e.limits.Bound(m).Contains(v.Float64)
}

// OutOfSpecMetrics lists the metrics whose current reading violates its bound.
func (e *Evaluator) OutOfSpecMetrics(u Unit) []Metric {
	var out []Metric
	for _, m := range Metrics {
		if e.OutOfSpec(m, u.Value(m)) {
			out = append(out, m)
		}
	}
	return out
}

// Classify assigns the decision tier from the five current readings only.
func (e *Evaluator) Classify(u Unit) Status {
	return e.classifyBy(u, MetricSlot.currentReading)
}

// ClassifyAtNIR assigns the tier the analyzer's own readings would have earned.
func (e *Evaluator) ClassifyAtNIR(u Unit) Status {
	return e.classifyBy(u, MetricSlot.NIRReading)
}

// HasOtherOutOfSpec is true when a non-rejecting metric (COR, POL, UMI, CIN by
// default) is out of spec. It separates "rejected for RI only" from "rejected
// and also flagged".
func (e *Evaluator) HasOtherOutOfSpec(u Unit) bool {
	for _, m := range Metrics {
		if e.limits.Bound(m).Rejects {
			continue
		}
		if e.OutOfSpec(m, u.Value(m)) {
			return true
		}
	}
	return false
}

func (e *Evaluator) classifyBy(u Unit, read func(MetricSlot) pgtype.Float8) Status {
	flagged := false
	for _, m := range Metrics {
		if !e.OutOfSpec(m, read(u.Slot(m))) {
			continue
		}
		if e.limits.Bound(m).Rejects {
			return StatusRejected
		}
		flagged = true
	}
	if flagged {
		return StatusApurado
	}
	return StatusApproved
}

func (s MetricSlot) currentReading() pgtype.Float8 { return s.Current }
