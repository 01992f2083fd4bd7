// Package pricing turns a stock vehicle and its comparable competitor
// listings into a recommended sale price, a position verdict and the
// narrative shown to the sales desk.
//
// Engine.Analyze is a pure function of its input and the engine's policy
// and reference year; it may be called concurrently.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/normalize"
	"github.com/okian/comparador/internal/domain/policy"
	"github.com/okian/comparador/internal/domain/types"
	"github.com/okian/comparador/internal/domain/valuation"
)

var hundred = decimal.NewFromInt(100)

// Input is everything the engine needs for one vehicle.
type Input struct {
	Vehicle     model.StockVehicle
	Descriptor  model.ModelDescriptor
	Range       types.Range
	Equipment   types.Equipment // empty when the original price is unknown
	Comparables []model.CompetitorListing
}

// MarketStats describes the comparable set used for pricing.
type MarketStats struct {
	Count       int  // listings in the set
	Narrowed    bool // restricted to similar original prices
	MinPrice    decimal.NullDecimal
	MaxPrice    decimal.NullDecimal
	AvgPrice    decimal.NullDecimal
	AvgDiscount *float64
	AvgMileage  *float64
	AvgYear     *float64
}

// StaleFloor is the minimum discount implied by long-listed competitors.
type StaleFloor struct {
	Listings         int // comparables published longer than the stale threshold
	MaxDiscount      *float64
	RequiredDiscount *float64
	Cap              decimal.NullDecimal
	Triggered        bool // the vehicle's own discount is below the requirement
}

// Trail records the recommended price after each policy stage.
type Trail struct {
	Branch        types.Branch
	Base          decimal.NullDecimal // reference price of the branch (average or minimum)
	Adjusted      decimal.NullDecimal // after mileage and age adjustments and clamps
	StaleCapped   decimal.NullDecimal // after the stale-competitor cap
	UrgencyCapped decimal.NullDecimal // after the long-stock cut
	Recommended   decimal.NullDecimal
	LongStockCut  bool
}

// Theoretical is the depreciation model's view of the vehicle.
type Theoretical struct {
	ExpectedValue decimal.NullDecimal
	MileageAdj    decimal.NullDecimal
	AgeAdj        decimal.NullDecimal
	Score         *float64 // own deviation score
	MarketScore   *float64 // mean deviation score of market comparables
	ScoreDiff     *float64
}

// AVPEstimate is the market-normalised price estimate. It is informational
// and never feeds the recommendation.
type AVPEstimate struct {
	ValuePerKm float64
	Retention  float64 // mean of (price + km × value per km) / new price
	Pairs      int
	Price      decimal.NullDecimal
}

// CompetitorDetail is one matched listing as shown next to the analysis.
type CompetitorDetail struct {
	ID                string
	ListingID         string
	Source            string
	Dealer            string
	OwnGroup          bool
	Model             string
	Price             decimal.NullDecimal
	NewPrice          decimal.NullDecimal
	MileageKm         *int
	RegistrationYear  *int
	DaysPublished     *int
	URL               string
	Score             *float64
	PriceDrops        int
	PriceDroppedTotal decimal.Decimal
}

// Analysis is the complete result for one stock vehicle.
type Analysis struct {
	Vehicle        model.StockVehicle
	CanonicalModel string
	Range          types.Range
	Equipment      types.Equipment
	OwnDiscount    *float64

	Market          MarketStats
	CompetitorCount int // matched listings outside the dealer's group
	CompetitorTotal int // every matched listing

	Theoretical Theoretical
	Stale       StaleFloor
	Trail       Trail

	Difference            decimal.NullDecimal // list − market average
	DifferencePct         *float64
	AdjustedDifference    decimal.NullDecimal // list − recommended
	AdjustedDifferencePct *float64

	Position       types.Position // empty when no recommendation exists
	Recommendation string
	MarketAnalysis string
	AVP            AVPEstimate

	Competitors []CompetitorDetail
}

// Engine applies a pricing policy.
type Engine struct {
	p      policy.Policy
	valuer *valuation.Valuer
}

// New creates an engine for a policy and reference year.
func New(p policy.Policy, currentYear int) *Engine {
	return &Engine{p: p, valuer: valuation.New(p, currentYear)}
}

// Analyze prices one vehicle.
func (e *Engine) Analyze(in Input) Analysis {
	v := in.Vehicle
	a := Analysis{
		Vehicle:         v,
		CanonicalModel:  in.Descriptor.String(),
		Range:           in.Range,
		Equipment:       in.Equipment,
		CompetitorTotal: len(in.Comparables),
	}
	if d, ok := v.Discount(); ok {
		a.OwnDiscount = &d
	}

	market := make([]model.CompetitorListing, 0, len(in.Comparables))
	for _, c := range in.Comparables {
		if !e.p.IsOwnGroup(c.DealerName) {
			market = append(market, c)
		}
	}
	a.CompetitorCount = len(market)

	set, narrowed := e.narrow(v, market)
	a.Market = summarize(set)
	a.Market.Narrowed = narrowed

	a.Theoretical = e.theoretical(v, market)
	a.Stale = e.staleFloor(v, set)
	a.Trail = e.recommend(in, a.Market, a.Stale)

	if v.ListPrice.Valid && a.Market.AvgPrice.Valid {
		a.Difference, a.DifferencePct = relative(v.ListPrice.Decimal, a.Market.AvgPrice.Decimal)
	}
	if v.ListPrice.Valid && a.Trail.Recommended.Valid {
		a.AdjustedDifference, a.AdjustedDifferencePct = relative(v.ListPrice.Decimal, a.Trail.Recommended.Decimal)
		if a.AdjustedDifferencePct != nil {
			a.Position = e.position(*a.AdjustedDifferencePct)
		}
	}

	a.Recommendation = e.narrative(in, a)
	a.MarketAnalysis = e.marketAnalysis(a)
	a.AVP = e.avp(v, in.Range, market)
	a.Competitors = e.details(in.Comparables)
	return a
}

func (e *Engine) position(deviationPct float64) types.Position {
	switch {
	case deviationPct <= -e.p.PositionThreshold:
		return types.PositionCompetitive
	case deviationPct >= e.p.PositionThreshold:
		return types.PositionHigh
	default:
		return types.PositionFair
	}
}

// relative returns a − b and (a − b) / b × 100.
func relative(a, b decimal.Decimal) (decimal.NullDecimal, *float64) {
	diff := a.Sub(b)
	if b.IsZero() {
		return decimal.NewNullDecimal(diff), nil
	}
	pct := diff.Div(b).Mul(hundred).InexactFloat64()
	return decimal.NewNullDecimal(diff), &pct
}

func (e *Engine) theoretical(v model.StockVehicle, market []model.CompetitorListing) Theoretical {
	var t Theoretical
	if !v.OriginalNewPrice.Valid || v.RegistrationYear == nil {
		return t
	}
	km := 0
	if v.MileageKm != nil {
		km = *v.MileageKm
	}
	b := e.valuer.Explain(v.OriginalNewPrice.Decimal, *v.RegistrationYear, km)
	t.ExpectedValue = decimal.NewNullDecimal(b.ExpectedValue)
	t.MileageAdj = decimal.NewNullDecimal(b.MileageAdj)
	t.AgeAdj = decimal.NewNullDecimal(b.AgeAdj)

	if !v.ListPrice.Valid {
		return t
	}
	own, ok := e.valuer.DeviationScore(v.ListPrice.Decimal, v.OriginalNewPrice.Decimal, *v.RegistrationYear, km)
	if !ok {
		return t
	}
	t.Score = &own

	var sum float64
	var n int
	for _, c := range market {
		if s := e.score(c); s != nil {
			sum += *s
			n++
		}
	}
	if n > 0 {
		mean := sum / float64(n)
		diff := own - mean
		t.MarketScore, t.ScoreDiff = &mean, &diff
	}
	return t
}

// score is a listing's own deviation from its theoretical value.
func (e *Engine) score(c model.CompetitorListing) *float64 {
	if !c.AskingPrice.Valid || !c.OriginalNewPrice.Valid || c.RegistrationYear == nil || c.MileageKm == nil {
		return nil
	}
	s, ok := e.valuer.DeviationScore(c.AskingPrice.Decimal, c.OriginalNewPrice.Decimal, *c.RegistrationYear, *c.MileageKm)
	if !ok {
		return nil
	}
	return &s
}

func (e *Engine) details(comparables []model.CompetitorListing) []CompetitorDetail {
	out := make([]CompetitorDetail, 0, len(comparables))
	for _, c := range comparables {
		drops, dropped := c.PriceDrops()
		out = append(out, CompetitorDetail{
			ID:                c.ID,
			ListingID:         c.ListingID,
			Source:            c.Source,
			Dealer:            normalize.DealerName(c.DealerName),
			OwnGroup:          e.p.IsOwnGroup(c.DealerName),
			Model:             normalize.DisplayModel(c.RawModel),
			Price:             c.AskingPrice,
			NewPrice:          c.OriginalNewPrice,
			MileageKm:         c.MileageKm,
			RegistrationYear:  c.RegistrationYear,
			DaysPublished:     c.DaysPublished,
			URL:               c.URL,
			Score:             e.score(c),
			PriceDrops:        drops,
			PriceDroppedTotal: dropped,
		})
	}
	return out
}
