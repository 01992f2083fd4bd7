package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/types"
)

// narrow keeps the listings whose original new price is within the
// equipment band of the vehicle's. It falls back to the whole market when the
// vehicle has no original price or fewer than MinNarrowed listings survive.
func (e *Engine) narrow(v model.StockVehicle, market []model.CompetitorListing) ([]model.CompetitorListing, bool) {
	if !v.OriginalNewPrice.Valid {
		return market, false
	}
	band := decimal.NewFromFloat(e.p.EquipmentBand)
	var out []model.CompetitorListing
	for _, c := range market {
		if !c.OriginalNewPrice.Valid {
			continue
		}
		if c.OriginalNewPrice.Decimal.Sub(v.OriginalNewPrice.Decimal).Abs().LessThanOrEqual(band) {
			out = append(out, c)
		}
	}
	if len(out) < e.p.MinNarrowed {
		return market, false
	}
	return out, true
}

func summarize(set []model.CompetitorListing) MarketStats {
	s := MarketStats{Count: len(set)}

	var prices []decimal.Decimal
	var discounts, kms, years []float64
	for _, c := range set {
		// A zero or negative asking price is a placeholder, not a market price.
		if c.AskingPrice.Valid && c.AskingPrice.Decimal.IsPositive() {
			prices = append(prices, c.AskingPrice.Decimal)
		}
		if d, ok := c.Discount(); ok {
			discounts = append(discounts, d)
		}
		if c.MileageKm != nil {
			kms = append(kms, float64(*c.MileageKm))
		}
		if c.RegistrationYear != nil {
			years = append(years, float64(*c.RegistrationYear))
		}
	}

	if len(prices) > 0 {
		s.MinPrice = decimal.NewNullDecimal(decimal.Min(prices[0], prices[1:]...))
		s.MaxPrice = decimal.NewNullDecimal(decimal.Max(prices[0], prices[1:]...))
		s.AvgPrice = decimal.NewNullDecimal(decimal.Avg(prices[0], prices[1:]...))
	}
	s.AvgDiscount = mean(discounts)
	s.AvgMileage = mean(kms)
	s.AvgYear = mean(years)
	return s
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

// staleFloor looks at comparables listed longer than StaleDays: the vehicle
// should be discounted at least StaleMargin points more than the deepest of
// them.
func (e *Engine) staleFloor(v model.StockVehicle, set []model.CompetitorListing) StaleFloor {
	var f StaleFloor
	for _, c := range set {
		if c.DaysPublished == nil || *c.DaysPublished <= e.p.StaleDays {
			continue
		}
		d, ok := c.Discount()
		if !ok {
			continue
		}
		f.Listings++
		if f.MaxDiscount == nil || d > *f.MaxDiscount {
			f.MaxDiscount = &d
		}
	}
	if f.MaxDiscount == nil {
		return f
	}

	required := *f.MaxDiscount + e.p.StaleMargin
	f.RequiredDiscount = &required
	if !v.OriginalNewPrice.Valid {
		return f
	}
	f.Cap = decimal.NewNullDecimal(v.OriginalNewPrice.Decimal.Mul(
		decimal.NewFromInt(1).Sub(decimal.NewFromFloat(required).Div(hundred))))

	if own, ok := v.Discount(); ok && own < required {
		f.Triggered = true
	}
	return f
}

// avp estimates the value of a kilometre from pairs of similar listings and
// the share of the new price the market retains once mileage is neutralised.
func (e *Engine) avp(v model.StockVehicle, r types.Range, market []model.CompetitorListing) AVPEstimate {
	type point struct{ price, newPrice, km float64 }
	var pts []point
	for _, c := range market {
		if !c.AskingPrice.Valid || !c.OriginalNewPrice.Valid || c.MileageKm == nil || !c.OriginalNewPrice.Decimal.IsPositive() || !c.AskingPrice.Decimal.IsPositive() {
			continue
		}
		pts = append(pts, point{
			price:    c.AskingPrice.Decimal.InexactFloat64(),
			newPrice: c.OriginalNewPrice.Decimal.InexactFloat64(),
			km:       float64(*c.MileageKm),
		})
	}

	est := AVPEstimate{ValuePerKm: e.p.PerKm(r)}
	var sum float64
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			a, b := pts[i], pts[j]
			if math.Abs(a.newPrice-b.newPrice) > e.p.EquipmentBand || a.km == b.km {
				continue
			}
			sum += math.Abs(a.price-b.price) / math.Abs(a.km-b.km)
			est.Pairs++
		}
	}
	if est.Pairs > 0 {
		est.ValuePerKm = sum / float64(est.Pairs)
	}
	if len(pts) == 0 {
		return est
	}

	var ret float64
	for _, p := range pts {
		ret += (p.price + p.km*est.ValuePerKm) / p.newPrice
	}
	est.Retention = ret / float64(len(pts))

	if v.OriginalNewPrice.Valid {
		km := 0.0
		if v.MileageKm != nil {
			km = float64(*v.MileageKm)
		}
		price := v.OriginalNewPrice.Decimal.InexactFloat64()*est.Retention - km*est.ValuePerKm
		est.Price = decimal.NewNullDecimal(decimal.NewFromFloat(price).Round(2))
	}
	return est
}
