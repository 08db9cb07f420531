package core

import (
	"errors"
	"fmt"
	"strings"
)

// Bound is the accepted range of one metric. A nil side is unbounded.
// Rejects marks metrics whose violation rejects the unit outright instead of
// sending it to review.
type Bound struct {
	Min     *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Rejects bool     `yaml:"rejects,omitempty" json:"rejects,omitempty"`
}

// Contains reports whether v lies inside the bound (edges inclusive).
func (b Bound) Contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// Limits is an immutable limit set for one commodity.
type Limits struct {
	Name   string           `yaml:"name" json:"name"`
	Bounds map[Metric]Bound `yaml:"bounds" json:"bounds"`
}

// DefaultLimits returns the contractual limits for VHP sugar.
func DefaultLimits() Limits {
	return Limits{
		Name: "vhp",
		Bounds: map[Metric]Bound{
			Pol: {Min: ptr(98.9), Max: ptr(99.6)},
			Cor: {Max: ptr(1250)},
			Cin: {Max: ptr(0.2)},
			Umi: {Max: ptr(0.2)},
			Ri:  {Max: ptr(500), Rejects: true},
		},
	}
}

// Bound returns the bound for m; metrics without one are never out of spec.
func (l Limits) Bound(m Metric) Bound {
	return l.Bounds[m]
}

// Validate checks that every bound refers to a known metric and is not inverted.
func (l Limits) Validate() error {
	if len(l.Bounds) == 0 {
		return errors.New("limit set has no bounds")
	}
	var errs []string
	for m, b := range l.Bounds {
		if _, ok := ParseMetric(string(m)); !ok {
			errs = append(errs, fmt.Sprintf("unknown metric %q", m))
			continue
		}
		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			errs = append(errs, fmt.Sprintf("%s: min %v above max %v", m, *b.Min, *b.Max))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid limit set %q: %s", l.Name, strings.Join(errs, "; "))
	}
	return nil
}

// clone deep-copies the limit set so callers cannot mutate an evaluator's view.
func (l Limits) clone() Limits {
	out := Limits{Name: l.Name, Bounds: make(map[Metric]Bound, len(l.Bounds))}
	for m, b := range l.Bounds {
		nb := Bound{Rejects: b.Rejects}
		if b.Min != nil {
			nb.Min = ptr(*b.Min)
		}
		if b.Max != nil {
			nb.Max = ptr(*b.Max)
		}
		out.Bounds[m] = nb
	}
	return out
}

func ptr(f float64) *float64 { return &f }
