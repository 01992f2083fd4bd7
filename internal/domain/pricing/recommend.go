package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/okian/comparador/internal/domain/types"
)

var one = decimal.NewFromInt(1)

// recommend runs the branch selection, the stale cap and the long-stock cut.
func (e *Engine) recommend(in Input, m MarketStats, stale StaleFloor) Trail {
	var t Trail
	if in.Range == types.RangeHigh && in.Equipment == types.EquipmentBasic {
		t = e.underEquipped(in, m)
	} else {
		t = e.standard(in, m)
	}
	if !t.Adjusted.Valid || !t.Adjusted.Decimal.IsPositive() {
		return Trail{}
	}

	price := t.Adjusted.Decimal
	if stale.Triggered && stale.Cap.Valid && stale.Cap.Decimal.LessThan(price) {
		price = stale.Cap.Decimal
	}
	t.StaleCapped = decimal.NewNullDecimal(price)

	v := in.Vehicle
	if v.DaysInStock != nil && *v.DaysInStock > e.p.LongStockDays && v.ListPrice.Valid {
		_, pct := relative(v.ListPrice.Decimal, price)
		if pct != nil && e.position(*pct) != types.PositionCompetitive {
			price = price.Mul(one.Sub(decimal.NewFromFloat(e.p.LongStockCut)))
			t.LongStockCut = true
		}
	}
	t.UrgencyCapped = decimal.NewNullDecimal(price)
	t.Recommended = decimal.NewNullDecimal(price)
	return t
}

// mileageDelta is vehicle km − market average km, zero when either is unknown.
func mileageDelta(in Input, m MarketStats) decimal.Decimal {
	if in.Vehicle.MileageKm == nil || m.AvgMileage == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(*in.Vehicle.MileageKm)).Sub(decimal.NewFromFloat(*m.AvgMileage))
}

// standard starts from the market average, corrects for mileage and clamps
// between list × floor and average × ceiling.
func (e *Engine) standard(in Input, m MarketStats) Trail {
	t := Trail{Branch: types.BranchStandard}
	if !m.AvgPrice.Valid {
		return t
	}
	avg := m.AvgPrice.Decimal
	t.Base = m.AvgPrice

	perKm := decimal.NewFromFloat(e.p.PerKm(in.Range))
	price := avg.Sub(mileageDelta(in, m).Mul(perKm))

	if lp := in.Vehicle.ListPrice; lp.Valid {
		floor := lp.Decimal.Mul(decimal.NewFromFloat(e.p.Floor(in.Range, in.Equipment)))
		price = decimal.Max(price, floor)
	}
	ceiling := avg.Mul(decimal.NewFromFloat(e.p.CeilingRatio))
	price = decimal.Min(price, ceiling)

	t.Adjusted = decimal.NewNullDecimal(price)
	return t
}

// underEquipped prices a high-range, basic-equipment vehicle against the
// cheapest comparable. A significant mileage or age advantage earns a bonus
// over the minimum; otherwise the price goes below it.
func (e *Engine) underEquipped(in Input, m MarketStats) Trail {
	var t Trail
	if !m.MinPrice.Valid {
		return t
	}
	minPrice := m.MinPrice.Decimal
	t.Base = m.MinPrice
	v := in.Vehicle
	perKm := decimal.NewFromFloat(e.p.PerKm(in.Range))

	bonus := decimal.Zero
	if v.MileageKm != nil && m.AvgMileage != nil {
		adv := *m.AvgMileage - float64(*v.MileageKm)
		if adv > e.p.MileageSignificance {
			bonus = bonus.Add(decimal.NewFromFloat(adv).Mul(perKm))
		}
	}
	if v.RegistrationYear != nil && m.AvgYear != nil {
		adv := float64(*v.RegistrationYear) - *m.AvgYear
		if adv >= e.p.YearSignificance {
			bonus = bonus.Add(decimal.NewFromFloat(adv).Mul(decimal.NewFromFloat(e.p.YearBonus)))
		}
	}

	if bonus.IsPositive() {
		t.Branch = types.BranchBonus
		t.Adjusted = decimal.NewNullDecimal(minPrice.Add(bonus))
		return t
	}

	t.Branch = types.BranchAggressive
	price := minPrice.
		Sub(minPrice.Mul(decimal.NewFromFloat(e.p.AggressiveDiscount))).
		Sub(mileageDelta(in, m).Mul(perKm))
	if v.ListPrice.Valid {
		price = decimal.Max(price, v.ListPrice.Decimal.Mul(decimal.NewFromFloat(e.p.AggressiveFloorRatio)))
	}
	if price.GreaterThanOrEqual(minPrice) {
		price = minPrice.Mul(decimal.NewFromFloat(e.p.UnderMinRatio))
	}
	t.Adjusted = decimal.NewNullDecimal(price)
	return t
}
