package core

// doublecheck.go reconstructs what happened to a unit between the NIR reading
// and the terminal's final decision.
//
// Every view that shows a decision must go through Reconciler.Decide. The
// precedence below is evaluated in order and the first match wins, so no two
// states can apply to the same unit:
//
//  1. Data incomplete: a descriptive field, the weight or any metric is missing
//  2. Explicit authorization: APPROVED or REJECTED decides the outcome
//  3. Recheck recorded: some metric has both NIR and lab readings
//  4. Legacy implicit release (see legacy.go)
//  5. NIR direct: the analyzer reading stands on its own

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// DoublecheckState is the reconstructed review state of a unit.
type DoublecheckState string

const (
	StateDataIncomplete        DoublecheckState = "data_incomplete"
	StateNIRDirect             DoublecheckState = "nir_direct"
	StateDoublecheckComplete   DoublecheckState = "doublecheck_complete"
	StateDoublecheckIncomplete DoublecheckState = "doublecheck_incomplete"
)

// Outcome is the machine-readable final decision shown to users.
type Outcome string

const (
	OutcomeAwaitingData       Outcome = "awaiting_data"
	OutcomeAwaitingStatus     Outcome = "awaiting_status"
	OutcomeAwaitingReview     Outcome = "awaiting_review"
	OutcomeReleasedByAnalyzer Outcome = "released_by_analyzer"
	OutcomeReleasedByTerminal Outcome = "released_by_terminal"
	OutcomeRejected           Outcome = "rejected"
)

// Narrative returns the human-readable text for the outcome.
func (o Outcome) Narrative() string {
	switch o {
	case OutcomeAwaitingData:
		return "Awaiting data"
	case OutcomeAwaitingStatus:
		return "Awaiting final status"
	case OutcomeAwaitingReview:
		return "Flagged by automated analyzer, awaiting review"
	case OutcomeReleasedByAnalyzer:
		return "Released by automated analyzer"
	case OutcomeReleasedByTerminal:
		return "Released by terminal"
	case OutcomeRejected:
		return "Rejected"
	default:
		return string(o)
	}
}

// Reading pairs a metric with one of its values.
type Reading struct {
	Metric Metric  `json:"metric"`
	Value  float64 `json:"value"`
}

// Decision is the derived reconciliation of one unit. It never changes the unit.
type Decision struct {
	State             DoublecheckState `json:"state"`
	Outcome           Outcome          `json:"outcome"`
	Narrative         string           `json:"narrative"`
	Status            Status           `json:"status"` // Evaluator.Classify on current readings
	HasOtherOutOfSpec bool             `json:"hasOtherOutOfSpec"`
	HadDoublecheck    bool             `json:"houveDoublecheck"`
	Incomplete        []string         `json:"incomplete,omitempty"`
	Rechecked         []Metric         `json:"rechecked,omitempty"`
	OutOfSpecAtNIR    []Metric         `json:"outOfSpecAtNir,omitempty"`
	LabConfirmed      []Reading        `json:"labConfirmed,omitempty"`
	Legacy            bool             `json:"legacy,omitempty"`
}

// ReconcilerOptions tune the reconciler.
type ReconcilerOptions struct {
	// LegacyImplicitRelease keeps the backward-compatible reading of old feeds
	// that never recorded previous values. See legacyImplicitRelease.
	LegacyImplicitRelease bool
}

// DefaultReconcilerOptions matches the behaviour existing reports rely on.
func DefaultReconcilerOptions() ReconcilerOptions {
	return ReconcilerOptions{LegacyImplicitRelease: true}
}

// Reconciler derives Decisions using one Evaluator.
type Reconciler struct {
	eval *Evaluator
	opts ReconcilerOptions
}

// NewReconciler creates a reconciler.
func NewReconciler(eval *Evaluator, opts ReconcilerOptions) *Reconciler {
	return &Reconciler{eval: eval, opts: opts}
}

// MetricWasRechecked is true iff both the previous and current reading of m exist.
func MetricWasRechecked(u Unit, m Metric) bool {
	return u.Slot(m).Rechecked()
}

// RecheckedMetrics lists metrics for which MetricWasRechecked holds.
func RecheckedMetrics(u Unit) []Metric {
	var out []Metric
	for _, m := range Metrics {
		if MetricWasRechecked(u, m) {
			out = append(out, m)
		}
	}
	return out
}

// LabConfirmedMetrics pairs every rechecked metric with the lab reading,
// whether or not that reading is itself in spec.
func LabConfirmedMetrics(u Unit) []Reading {
	var out []Reading
	for _, m := range Metrics {
		if !MetricWasRechecked(u, m) {
			continue
		}
		out = append(out, Reading{Metric: m, Value: u.Value(m).Float64})
	}
	return out
}

// OutOfSpecMetricsAtNIR lists metrics whose analyzer reading violates its
// bound. The previous value is used when present, otherwise the current one,
// so feeds without previous-value columns still show what NIR flagged.
func (r *Reconciler) OutOfSpecMetricsAtNIR(u Unit) []Metric {
	var out []Metric
	for _, m := range Metrics {
		if r.eval.OutOfSpec(m, u.Slot(m).NIRReading()) {
			out = append(out, m)
		}
	}
	return out
}

// MissingData lists what keeps the unit from being complete, in a stable order.
// An empty result means the unit is complete.
func MissingData(u Unit) []string {
	var missing []string
	if strings.TrimSpace(u.Label()) == "" {
		if u.Kind == KindVessel {
			missing = append(missing, string(FieldVessel))
		} else {
			missing = append(missing, string(FieldLicensePlate))
		}
	}
	if strings.TrimSpace(u.DocumentNumber()) == "" {
		if u.Kind == KindVessel {
			missing = append(missing, string(FieldProcess))
		} else {
			missing = append(missing, string(FieldInvoice))
		}
	}
	if strings.TrimSpace(u.Client) == "" {
		missing = append(missing, string(FieldClient))
	}
	if strings.TrimSpace(u.Supplier) == "" {
		missing = append(missing, string(FieldSupplier))
	}
	if !positive(u.GrossWeight) {
		missing = append(missing, string(FieldGrossWeight))
	}
	for _, m := range Metrics {
		if !u.Value(m).Valid {
			missing = append(missing, string(m))
		}
	}
	return missing
}

// IsComplete reports whether the unit passes the data-completeness check.
func IsComplete(u Unit) bool {
	return len(MissingData(u)) == 0
}

// Decide reconciles one unit. It never fails: every combination of fields
// resolves to exactly one state through the precedence in this file's header.
func (r *Reconciler) Decide(u Unit) Decision {
	d := Decision{
		Status:            r.eval.Classify(u),
		HasOtherOutOfSpec: r.eval.HasOtherOutOfSpec(u),
		HadDoublecheck:    u.HadDoublecheck(),
		Rechecked:         RecheckedMetrics(u),
		OutOfSpecAtNIR:    r.OutOfSpecMetricsAtNIR(u),
		LabConfirmed:      LabConfirmedMetrics(u),
	}

	d.State, d.Outcome, d.Legacy = r.resolve(u, d)
	d.Narrative = d.Outcome.Narrative()
	if d.State == StateDataIncomplete {
		d.Incomplete = MissingData(u)
	}
	return d
}

func (r *Reconciler) resolve(u Unit, d Decision) (DoublecheckState, Outcome, bool) {
	rechecked := len(d.Rechecked) > 0

	switch {
	case !IsComplete(u):
		return StateDataIncomplete, OutcomeAwaitingData, false

	case u.Authorization != AuthPending:
		state := StateDoublecheckComplete
		if !rechecked {
			state = StateDoublecheckIncomplete
		}
		if u.Authorization == AuthRejected {
			return state, OutcomeRejected, !rechecked
		}
		return state, OutcomeReleasedByTerminal, !rechecked

	case rechecked:
		return StateDoublecheckComplete, OutcomeAwaitingStatus, false

	case r.opts.LegacyImplicitRelease && legacyImplicitRelease(u, d):
		return StateDoublecheckIncomplete, OutcomeReleasedByTerminal, true

	case d.Status == StatusApproved:
		return StateNIRDirect, OutcomeReleasedByAnalyzer, false

	default:
		return StateNIRDirect, OutcomeAwaitingReview, false
	}
}

func positive(v pgtype.Float8) bool {
	return v.Valid && v.Float64 > 0
}
