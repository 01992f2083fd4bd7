// Package policy holds every tunable constant of the pricing policy in one
// structure that is passed explicitly to the classifier, valuer and
// recommendation engine.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/comparador/internal/domain/types"
)

// ErrInvalidPolicy is returned by Validate.
var ErrInvalidPolicy = errors.New("invalid pricing policy")

// Policy is the full set of pricing constants. Ratios are fractions,
// discounts and thresholds expressed as percentages are in points.
type Policy struct {
	// Range classifier fallbacks.
	ReferencePriceBasic  float64 `koanf:"reference_price_basic"`
	ReferencePriceMid    float64 `koanf:"reference_price_mid"`
	ReferencePriceHigh   float64 `koanf:"reference_price_high"`
	FallbackBand         float64 `koanf:"fallback_band"`
	MinPercentileSamples int     `koanf:"min_percentile_samples"`
	EquipmentDeviation   float64 `koanf:"equipment_deviation"`

	// €/km applied to mileage differentials, per range.
	PerKmBasic float64 `koanf:"per_km_basic"`
	PerKmMid   float64 `koanf:"per_km_mid"`
	PerKmHigh  float64 `koanf:"per_km_high"`

	// Comparable narrowing.
	EquipmentBand float64 `koanf:"equipment_band"`
	MinNarrowed   int     `koanf:"min_narrowed"`

	// Stale-competitor floor.
	StaleDays   int     `koanf:"stale_days"`
	StaleMargin float64 `koanf:"stale_margin"`

	// Standard branch clamps.
	FloorRatio         float64 `koanf:"floor_ratio"`
	FloorRatioMidBasic float64 `koanf:"floor_ratio_mid_basic"`
	CeilingRatio       float64 `koanf:"ceiling_ratio"`

	// Premium under-equipped branch.
	MileageSignificance  float64 `koanf:"mileage_significance"`
	YearSignificance     float64 `koanf:"year_significance"`
	YearBonus            float64 `koanf:"year_bonus"`
	AggressiveDiscount   float64 `koanf:"aggressive_discount"`
	AggressiveFloorRatio float64 `koanf:"aggressive_floor_ratio"`
	UnderMinRatio        float64 `koanf:"under_min_ratio"`

	// Long-stock escalation.
	LongStockDays int     `koanf:"long_stock_days"`
	LongStockCut  float64 `koanf:"long_stock_cut"`

	// Verdict.
	PositionThreshold float64 `koanf:"position_threshold"`
	MarketBand        float64 `koanf:"market_band"`

	// Depreciation.
	AgeFactors        []float64 `koanf:"age_factors"`
	AnnualDecay       float64   `koanf:"annual_decay"`
	MinAgeFactor      float64   `koanf:"min_age_factor"`
	PerKmDepreciation float64   `koanf:"per_km_depreciation"`
	MinValueRatio     float64   `koanf:"min_value_ratio"`

	// Matching defaults used when a request leaves tolerances unset.
	CVTolerance   int     `koanf:"cv_tolerance"`
	YearTolerance float64 `koanf:"year_tolerance"`

	// Substrings (lowercase) identifying the dealer's own group in competitor data.
	OwnGroupMarkers []string `koanf:"own_group_markers"`
}

// Default returns the production policy.
func Default() Policy {
	return Policy{
		ReferencePriceBasic:  35000,
		ReferencePriceMid:    55000,
		ReferencePriceHigh:   105000,
		FallbackBand:         0.15,
		MinPercentileSamples: 4,
		EquipmentDeviation:   0.10,

		PerKmBasic: 0.10,
		PerKmMid:   0.15,
		PerKmHigh:  0.20,

		EquipmentBand: 10000,
		MinNarrowed:   3,

		StaleDays:   60,
		StaleMargin: 1,

		FloorRatio:         0.80,
		FloorRatioMidBasic: 0.75,
		CeilingRatio:       1.10,

		MileageSignificance:  15000,
		YearSignificance:     1,
		YearBonus:            1000,
		AggressiveDiscount:   0.03,
		AggressiveFloorRatio: 0.65,
		UnderMinRatio:        0.97,

		LongStockDays: 60,
		LongStockCut:  0.05,

		PositionThreshold: 3,
		MarketBand:        20,

		AgeFactors:        []float64{0.85, 0.75, 0.67},
		AnnualDecay:       0.10,
		MinAgeFactor:      0.30,
		PerKmDepreciation: 0.15,
		MinValueRatio:     0.20,

		CVTolerance:   20,
		YearTolerance: 2,

		OwnGroupMarkers: []string{"quadis", "duc"},
	}
}

// ReferencePrice is the fallback p50 for a range.
func (p Policy) ReferencePrice(r types.Range) float64 {
	switch r {
	case types.RangeHigh:
		return p.ReferencePriceHigh
	case types.RangeMid:
		return p.ReferencePriceMid
	default:
		return p.ReferencePriceBasic
	}
}

// PerKm is the €/km value used for mileage differentials in a range.
func (p Policy) PerKm(r types.Range) float64 {
	switch r {
	case types.RangeHigh:
		return p.PerKmHigh
	case types.RangeMid:
		return p.PerKmMid
	default:
		return p.PerKmBasic
	}
}

// Floor is the lower clamp ratio of the standard branch.
func (p Policy) Floor(r types.Range, e types.Equipment) float64 {
	if r == types.RangeMid && e == types.EquipmentBasic {
		return p.FloorRatioMidBasic
	}
	return p.FloorRatio
}

// IsOwnGroup reports whether a competitor dealer name belongs to the dealer's group.
func (p Policy) IsOwnGroup(dealer string) bool {
	name := strings.ToLower(dealer)
	if name == "" {
		return false
	}
	for _, m := range p.OwnGroupMarkers {
		if m != "" && strings.Contains(name, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Validate checks that every constant is inside its domain.
func (p Policy) Validate() error {
	positive := map[string]float64{
		"reference_price_basic": p.ReferencePriceBasic,
		"reference_price_mid":   p.ReferencePriceMid,
		"reference_price_high":  p.ReferencePriceHigh,
		"equipment_band":        p.EquipmentBand,
		"mileage_significance":  p.MileageSignificance,
		"year_significance":     p.YearSignificance,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidPolicy, name)
		}
	}

	ratios := map[string]float64{
		"floor_ratio":            p.FloorRatio,
		"floor_ratio_mid_basic":  p.FloorRatioMidBasic,
		"ceiling_ratio":          p.CeilingRatio,
		"aggressive_floor_ratio": p.AggressiveFloorRatio,
		"under_min_ratio":        p.UnderMinRatio,
		"min_age_factor":         p.MinAgeFactor,
		"min_value_ratio":        p.MinValueRatio,
	}
	for name, v := range ratios {
		if v <= 0 || v > 1.5 {
			return fmt.Errorf("%w: %s must be in (0, 1.5]", ErrInvalidPolicy, name)
		}
	}

	nonNegative := map[string]float64{
		"fallback_band":       p.FallbackBand,
		"equipment_deviation": p.EquipmentDeviation,
		"per_km_basic":        p.PerKmBasic,
		"per_km_mid":          p.PerKmMid,
		"per_km_high":         p.PerKmHigh,
		"stale_margin":        p.StaleMargin,
		"year_bonus":          p.YearBonus,
		"aggressive_discount": p.AggressiveDiscount,
		"long_stock_cut":      p.LongStockCut,
		"position_threshold":  p.PositionThreshold,
		"market_band":         p.MarketBand,
		"annual_decay":        p.AnnualDecay,
		"per_km_depreciation": p.PerKmDepreciation,
		"year_tolerance":      p.YearTolerance,
	}
	for name, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidPolicy, name)
		}
	}

	switch {
	case p.MinPercentileSamples < 1:
		return fmt.Errorf("%w: min_percentile_samples must be at least 1", ErrInvalidPolicy)
	case p.MinNarrowed < 1:
		return fmt.Errorf("%w: min_narrowed must be at least 1", ErrInvalidPolicy)
	case p.StaleDays < 0 || p.LongStockDays < 0:
		return fmt.Errorf("%w: day thresholds must not be negative", ErrInvalidPolicy)
	case p.CVTolerance < 0:
		return fmt.Errorf("%w: cv_tolerance must not be negative", ErrInvalidPolicy)
	case len(p.AgeFactors) == 0:
		return fmt.Errorf("%w: age_factors must not be empty", ErrInvalidPolicy)
	case len(p.OwnGroupMarkers) == 0:
		return fmt.Errorf("%w: at least one own_group_marker is required", ErrInvalidPolicy)
	}
	for i, f := range p.AgeFactors {
		if f <= 0 || f > 1 {
			return fmt.Errorf("%w: age_factors[%d] must be in (0, 1]", ErrInvalidPolicy, i)
		}
	}
	return nil
}
