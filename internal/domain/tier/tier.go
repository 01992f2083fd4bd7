// Package tier assigns market ranges and equipment levels.
//
// Equipment is relative: a vehicle's original list price is compared with
// the percentiles of every stock vehicle in the same range, so the percentile
// table must be computed over the whole stock before any vehicle is
// classified.
package tier

import (
	"math"
	"regexp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/normalize"
	"github.com/okian/comparador/internal/domain/policy"
	"github.com/okian/comparador/internal/domain/types"
)

var (
	highRange = regexp.MustCompile(`\b(x[5-7]|serie [5-8]|i[57]|ix)\b`)
	midRange  = regexp.MustCompile(`\b(x[34]|serie [34]|i4|ix3|countryman|clubman)\b`)
)

// ClassifyRange maps a canonical model to its market range.
func ClassifyRange(d model.ModelDescriptor) types.Range {
	switch {
	case highRange.MatchString(d.Base):
		return types.RangeHigh
	case midRange.MatchString(d.Base):
		return types.RangeMid
	default:
		return types.RangeBasic
	}
}

// ClassifyRangeText classifies a raw model string.
func ClassifyRangeText(text string) types.Range {
	return ClassifyRange(normalize.Normalize(text))
}

// Percentiles summarises the original list prices of one range.
type Percentiles struct {
	P25         float64
	P50         float64
	P75         float64
	SampleCount int
	Fallback    bool // true when fixed reference bands were used
}

// Table holds the percentiles of every range.
type Table map[types.Range]Percentiles

// Percentile interpolates linearly between the closest ranks of an ascending,
// non-empty slice: index = p/100 × (n−1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := p / 100 * float64(n-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(idx-float64(lo))
}

// Summarize computes p25/p50/p75 of unsorted values. The input is not modified.
func Summarize(values []float64) Percentiles {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return Percentiles{
		P25:         Percentile(sorted, 25),
		P50:         Percentile(sorted, 50),
		P75:         Percentile(sorted, 75),
		SampleCount: len(sorted),
	}
}

// Priced is a vehicle's range and original list price, the only inputs the
// percentile pass needs.
type Priced struct {
	Range            types.Range
	OriginalNewPrice decimal.NullDecimal
}

// ComputePercentiles builds the table from the whole stock. Ranges with fewer
// than the policy's minimum samples get bands around the reference price.
func ComputePercentiles(stock []Priced, p policy.Policy) Table {
	byRange := make(map[types.Range][]float64, len(types.Ranges))
	for _, v := range stock {
		if !v.OriginalNewPrice.Valid || !v.OriginalNewPrice.Decimal.IsPositive() {
			continue
		}
		byRange[v.Range] = append(byRange[v.Range], v.OriginalNewPrice.Decimal.InexactFloat64())
	}

	table := make(Table, len(types.Ranges))
	for _, r := range types.Ranges {
		values := byRange[r]
		if len(values) >= p.MinPercentileSamples {
			table[r] = Summarize(values)
			continue
		}
		ref := p.ReferencePrice(r)
		table[r] = Percentiles{
			P25:         ref * (1 - p.FallbackBand),
			P50:         ref,
			P75:         ref * (1 + p.FallbackBand),
			SampleCount: len(values),
			Fallback:    true,
		}
	}
	return table
}

// ClassifyEquipment places an original list price inside its range. Without
// a price there is no equipment level.
func ClassifyEquipment(r types.Range, originalNewPrice decimal.NullDecimal, table Table, p policy.Policy) (types.Equipment, bool) {
	if !originalNewPrice.Valid || !originalNewPrice.Decimal.IsPositive() {
		return "", false
	}
	price := originalNewPrice.Decimal.InexactFloat64()
	pct, ok := table[r]
	if !ok {
		return "", false
	}

	if !pct.Fallback {
		switch {
		case price <= pct.P25:
			return types.EquipmentBasic, true
		case price >= pct.P75:
			return types.EquipmentPremium, true
		default:
			return types.EquipmentMid, true
		}
	}

	deviation := (price - pct.P50) / pct.P50
	switch {
	case deviation <= -p.EquipmentDeviation:
		return types.EquipmentBasic, true
	case deviation >= p.EquipmentDeviation:
		return types.EquipmentPremium, true
	default:
		return types.EquipmentMid, true
	}
}
