// Package valuation computes the theoretical, depreciation-based value of a
// vehicle and how far an asking price deviates from it.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/okian/comparador/internal/domain/policy"
)

var hundred = decimal.NewFromInt(100)

// Valuer evaluates depreciation against a fixed reference year.
type Valuer struct {
	ageFactors  []decimal.Decimal
	annualDecay decimal.Decimal
	minFactor   decimal.Decimal
	perKm       decimal.Decimal
	minValue    decimal.Decimal
	currentYear int
}

// New creates a valuer for the given policy and reference year.
func New(p policy.Policy, currentYear int) *Valuer {
	factors := make([]decimal.Decimal, len(p.AgeFactors))
	for i, f := range p.AgeFactors {
		factors[i] = decimal.NewFromFloat(f)
	}
	return &Valuer{
		ageFactors:  factors,
		annualDecay: decimal.NewFromFloat(p.AnnualDecay),
		minFactor:   decimal.NewFromFloat(p.MinAgeFactor),
		perKm:       decimal.NewFromFloat(p.PerKmDepreciation),
		minValue:    decimal.NewFromFloat(p.MinValueRatio),
		currentYear: currentYear,
	}
}

// AgeFactor is the share of the new price retained after age full years.
// Past the table, each extra year removes the annual decay, down to the floor.
func (v *Valuer) AgeFactor(age int) decimal.Decimal {
	if age < 0 {
		age = 0
	}
	last := len(v.ageFactors) - 1
	if age <= last {
		return v.ageFactors[age]
	}
	f := v.ageFactors[last].Sub(decimal.NewFromInt(int64(age - last)).Mul(v.annualDecay))
	if f.LessThan(v.minFactor) {
		return v.minFactor
	}
	return f
}

// ExpectedValue is new price × age factor − km × per-km depreciation, never
// below the minimum share of the new price.
func (v *Valuer) ExpectedValue(originalNewPrice decimal.Decimal, registrationYear, mileageKm int) decimal.Decimal {
	value := originalNewPrice.Mul(v.AgeFactor(v.currentYear - registrationYear)).
		Sub(decimal.NewFromInt(int64(mileageKm)).Mul(v.perKm))
	floor := originalNewPrice.Mul(v.minValue)
	if value.LessThan(floor) {
		return floor
	}
	return value
}

// DeviationScore is (asking − expected) / expected × 100. Negative means
// cheaper than the depreciation model predicts.
func (v *Valuer) DeviationScore(askingPrice, originalNewPrice decimal.Decimal, registrationYear, mileageKm int) (float64, bool) {
	ev := v.ExpectedValue(originalNewPrice, registrationYear, mileageKm)
	if !ev.IsPositive() {
		return 0, false
	}
	return askingPrice.Sub(ev).Div(ev).Mul(hundred).InexactFloat64(), true
}

// Breakdown splits the depreciation of a vehicle into its mileage and age parts.
type Breakdown struct {
	ExpectedValue decimal.Decimal
	MileageAdj    decimal.Decimal // km × per-km depreciation
	AgeAdj        decimal.Decimal // new price − expected value at zero km
}

// Explain returns the value together with its breakdown.
func (v *Valuer) Explain(originalNewPrice decimal.Decimal, registrationYear, mileageKm int) Breakdown {
	return Breakdown{
		ExpectedValue: v.ExpectedValue(originalNewPrice, registrationYear, mileageKm),
		MileageAdj:    decimal.NewFromInt(int64(mileageKm)).Mul(v.perKm),
		AgeAdj:        originalNewPrice.Sub(v.ExpectedValue(originalNewPrice, registrationYear, 0)),
	}
}
