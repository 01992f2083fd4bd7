// Package matching selects the competitor listings comparable to a stock vehicle.
package matching

import (
	"math"

	"github.com/okian/comparador/internal/domain/model"
)

// Default tolerances.
const (
	DefaultCVTolerance   = 20
	DefaultYearTolerance = 2.0
)

// Tolerances bound the power and registration-year differences of a pair.
type Tolerances struct {
	CV   int
	Year float64
}

// Subject is the stock side of a comparison.
type Subject struct {
	Descriptor       model.ModelDescriptor
	RegistrationYear *int
}

// Candidate is a competitor listing with its descriptor computed once.
type Candidate struct {
	Listing    model.CompetitorListing
	Descriptor model.ModelDescriptor
}

// Matcher applies the comparability rules.
type Matcher struct {
	tol Tolerances
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithTolerances overrides the defaults. Negative values are ignored.
func WithTolerances(t Tolerances) Option {
	return func(m *Matcher) {
		if t.CV >= 0 {
			m.tol.CV = t.CV
		}
		if t.Year >= 0 {
			m.tol.Year = t.Year
		}
	}
}

// New creates a matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{tol: Tolerances{CV: DefaultCVTolerance, Year: DefaultYearTolerance}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tolerances returns the tolerances in effect.
func (m *Matcher) Tolerances() Tolerances { return m.tol }

// Match reports whether two descriptors and years are comparable:
//   - bases are equal and non-empty
//   - variants are equal when both sides carry one
//   - power differs by at most the CV tolerance when both sides carry it
//   - years differ by at most the year tolerance when both sides carry one
func (m *Matcher) Match(a model.ModelDescriptor, aYear *int, b model.ModelDescriptor, bYear *int) bool {
	if a.Base == "" || a.Base != b.Base {
		return false
	}
	if a.Variant != "" && b.Variant != "" && a.Variant != b.Variant {
		return false
	}
	if a.PowerHP != nil && b.PowerHP != nil && absInt(*a.PowerHP-*b.PowerHP) > m.tol.CV {
		return false
	}
	if aYear != nil && bYear != nil && math.Abs(float64(*aYear-*bYear)) > m.tol.Year {
		return false
	}
	return true
}

// FindComparable returns the eligible candidates that match the subject, in
// pool order. The pool is not modified.
func (m *Matcher) FindComparable(s Subject, pool []Candidate) []Candidate {
	var out []Candidate
	for _, c := range pool {
		if !c.Listing.Status.Eligible() {
			continue
		}
		if m.Match(s.Descriptor, s.RegistrationYear, c.Descriptor, c.Listing.RegistrationYear) {
			out = append(out, c)
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
