package core

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Metric names one of the five tracked quality metrics.
type Metric string

const (
	Cor Metric = "cor" // color (ICUMSA)
	Pol Metric = "pol" // purity
	Umi Metric = "umi" // moisture
	Cin Metric = "cin" // ash
	Ri  Metric = "ri"  // insoluble residue
)

// Metrics lists every metric in display order.
var Metrics = []Metric{Cor, Pol, Umi, Cin, Ri}

// Label returns the upper-case column label used in reports.
func (m Metric) Label() string {
	return strings.ToUpper(string(m))
}

// ParseMetric resolves a metric name case-insensitively.
func ParseMetric(s string) (Metric, bool) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Metrics {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// AutomatedAnalyst is the analyst id written when no person touched the reading.
const AutomatedAnalyst = "robo_lab"

// MetricSlot holds every reading recorded for one metric of one unit.
//
// Previous is only present when a laboratory re-analysis replaced the NIR
// reading; Current is then the lab value.
type MetricSlot struct {
	Current  pgtype.Float8    `json:"current"`
	Previous pgtype.Float8    `json:"previous"`
	Date     pgtype.Timestamp `json:"date"`
	NIRDate  pgtype.Timestamp `json:"nirDate"`
	Analyst  string           `json:"analyst,omitempty"`
}

// HumanAnalyst returns the analyst id unless it is the automated one.
func (s MetricSlot) HumanAnalyst() string {
	if strings.EqualFold(s.Analyst, AutomatedAnalyst) {
		return ""
	}
	return s.Analyst
}

// Rechecked reports whether both the NIR and the lab reading exist.
func (s MetricSlot) Rechecked() bool {
	return s.Previous.Valid && s.Current.Valid
}

// NIRReading is the value the analyzer originally produced: the previous value
// when a recheck happened, the current one otherwise.
func (s MetricSlot) NIRReading() pgtype.Float8 {
	if s.Previous.Valid {
		return s.Previous
	}
	return s.Current
}

// Authorization is the terminal's final release decision.
type Authorization string

const (
	AuthPending  Authorization = ""
	AuthApproved Authorization = "APPROVED"
	AuthRejected Authorization = "REJECTED"
)

// ParseAuthorization accepts the English and pt-BR spellings found in feeds.
// Anything else, including empty text, is pending.
func ParseAuthorization(s string) Authorization {
	switch strings.ToUpper(foldAccents(CleanCell(s))) {
	case "APPROVED", "APROVADO", "APROVADA", "LIBERADO", "LIBERADA":
		return AuthApproved
	case "REJECTED", "REPROVADO", "REPROVADA", "REJEITADO", "REJEITADA", "RECUSADO", "RECUSADA":
		return AuthRejected
	default:
		return AuthPending
	}
}

// UnitKind distinguishes the two feeds.
type UnitKind string

const (
	KindTruck  UnitKind = "truck"
	KindVessel UnitKind = "vessel"
)

// Unit is one weighed load. Units are never mutated after mapping; all
// classification output lives in ClassifiedUnit.
type Unit struct {
	Kind UnitKind `json:"kind"`
	Line int      `json:"line"`

	ID          string `json:"id"`
	Plate       string `json:"licensePlate,omitempty"`
	Vessel      string `json:"vessel,omitempty"`
	Invoice     string `json:"invoice,omitempty"`
	Process     string `json:"process,omitempty"`
	Client      string `json:"client"`
	Supplier    string `json:"supplier"`
	Destination string `json:"destination,omitempty"`

	WeighedAt   pgtype.Timestamp `json:"weighedAt"`
	GrossWeight pgtype.Float8    `json:"grossWeight"`

	Metrics map[Metric]MetricSlot `json:"metrics"`

	Authorization  Authorization `json:"autorizacao,omitempty"`
	AuthorizedAt   string        `json:"dataAutorizacao,omitempty"`
	DoublecheckURL string        `json:"doublecheckUrl,omitempty"`
	Bola7URL       string        `json:"bola7Url,omitempty"`
}

// Slot returns the readings for m. A metric missing from the feed yields an
// all-absent slot.
func (u Unit) Slot(m Metric) MetricSlot {
	return u.Metrics[m]
}

// Value is shorthand for the current reading of m.
func (u Unit) Value(m Metric) pgtype.Float8 {
	return u.Metrics[m].Current
}

// Label is the primary display label: plate for trucks, vessel name for ships.
func (u Unit) Label() string {
	if u.Kind == KindVessel {
		return u.Vessel
	}
	return u.Plate
}

// DocumentNumber is the invoice for trucks and the process number for ships.
func (u Unit) DocumentNumber() string {
	if u.Kind == KindVessel {
		return u.Process
	}
	return u.Invoice
}

// AuthorizedTime parses AuthorizedAt when it is a well-formed local timestamp.
func (u Unit) AuthorizedTime() pgtype.Timestamp {
	return ParseLocalDateTime(u.AuthorizedAt)
}

// HasPrevious reports whether any metric carries a pre-recheck value.
func (u Unit) HasPrevious() bool {
	for _, m := range Metrics {
		if u.Metrics[m].Previous.Valid {
			return true
		}
	}
	return false
}

// HasAuthorizationSignal reports whether the terminal recorded anything about
// a release decision: an explicit authorization, its timestamp or a
// doublecheck bulletin.
func (u Unit) HasAuthorizationSignal() bool {
	return u.Authorization != AuthPending ||
		strings.TrimSpace(u.AuthorizedAt) != "" ||
		strings.TrimSpace(u.DoublecheckURL) != ""
}

// HadDoublecheck is true when any trace of a laboratory re-analysis exists.
func (u Unit) HadDoublecheck() bool {
	return u.HasPrevious() || u.HasAuthorizationSignal()
}

// Analysts lists the distinct human analysts in metric order.
func (u Unit) Analysts() []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range Metrics {
		a := u.Metrics[m].HumanAnalyst()
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// Status is the classification tier of a unit.
type Status string

const (
	StatusApproved Status = "approved"
	StatusApurado  Status = "apurado"
	StatusRejected Status = "rejected"
)

// StatusFilter selects units for aggregation and listing.
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterApproved StatusFilter = "approved"
	FilterApurado  StatusFilter = "apurado"
	FilterRejected StatusFilter = "rejected"
)

// ParseStatusFilter maps query values to a filter; unknown values mean all.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterApproved:
		return FilterApproved
	case FilterApurado:
		return FilterApurado
	case FilterRejected:
		return FilterRejected
	default:
		return FilterAll
	}
}

// SkippedRow records a data row that could not become a Unit.
type SkippedRow struct {
	Line   int      `json:"line"`
	Reason string   `json:"reason"`
	Data   []string `json:"data,omitempty"`
}

// FeedResult is the outcome of parsing one feed file.
type FeedResult struct {
	Feed      string       `json:"feed"`
	Delimiter string       `json:"delimiter"`
	Columns   ColumnMap    `json:"columns"`
	TotalRows int          `json:"totalRows"`
	Units     []Unit       `json:"units"`
	Skipped   []SkippedRow `json:"skipped"`
}
