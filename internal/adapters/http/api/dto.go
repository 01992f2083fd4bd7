package api

import (
	"math"

	"github.com/shopspring/decimal"

	service "github.com/okian/comparador/internal/app"
	"github.com/okian/comparador/internal/domain/pricing"
)

// listResponse mirrors the OpenAPI schema for GET /pricing-analysis.
type listResponse struct {
	Success  bool            `json:"success"`
	Stats    statsDTO        `json:"stats"`
	Vehicles []priceAnalysis `json:"vehiculos"`
	Count    int             `json:"count"`
}

type detailResponse struct {
	Success bool          `json:"success"`
	Data    priceAnalysis `json:"data"`
}

type statsDTO struct {
	OverallPosition float64 `json:"posicionGeneral"`
	AvgOwnPrice     float64 `json:"precioMedioNuestro"`
	AvgMarketPrice  float64 `json:"precioMedioCompetencia"`
	Opportunities   int     `json:"oportunidades"`
	Total           int     `json:"totalComparables"`
}

// priceAnalysis is the wire shape of one analysed vehicle. Unknown values
// are null.
type priceAnalysis struct {
	ID               string   `json:"id"`
	Plate            string   `json:"matricula"`
	Model            string   `json:"modelo"`
	CanonicalModel   string   `json:"modeloCanonico"`
	Year             *int     `json:"año"`
	Km               *int     `json:"km"`
	RegistrationDate string   `json:"fechaPrimeraMatriculacion"`
	URL              string   `json:"enlaceAnuncio"`
	ListPrice        *float64 `json:"nuestroPrecio"`
	NewPrice         *float64 `json:"precioNuevo"`
	OwnDiscount      *float64 `json:"descuentoNuestro"`
	Range            string   `json:"gama"`
	Equipment        *string  `json:"equipamiento"`
	DaysInStock      *int     `json:"diasEnStock"`

	AvgPrice         *float64 `json:"precioMedioCompetencia"`
	MinPrice         *float64 `json:"precioMinimoCompetencia"`
	MaxPrice         *float64 `json:"precioMaximoCompetencia"`
	AvgDiscount      *float64 `json:"descuentoMedioCompetencia"`
	AvgKm            *float64 `json:"kmMedioCompetencia"`
	AvgYear          *float64 `json:"añoMedioCompetencia"`
	Competitors      int      `json:"competidores"`
	CompetitorsTotal int      `json:"competidoresTotal"`
	Narrowed         bool     `json:"mercadoAcotado"`

	ExpectedValue *float64 `json:"valorEsperadoTeorico"`
	MileageAdj    *float64 `json:"ajusteKm"`
	AgeAdj        *float64 `json:"ajusteAño"`
	Score         *float64 `json:"scoreNuestro"`
	MarketScore   *float64 `json:"scoreMedioMercado"`
	ScoreDiff     *float64 `json:"diferenciaScore"`

	BasePrice        *float64 `json:"precioBase"`
	AdjustedPrice    *float64 `json:"precioAjustado"`
	StaleCapped      *float64 `json:"precioZombie"`
	UrgencyCapped    *float64 `json:"precioUrgencia"`
	Recommended      *float64 `json:"precioRecomendado"`
	RequiredDiscount *float64 `json:"descuentoMinimoRequerido"`
	Branch           *string  `json:"rama"`

	Difference            *float64 `json:"diferencia"`
	DifferencePct         *float64 `json:"porcentajeDif"`
	AdjustedDifference    *float64 `json:"diferenciaAjustada"`
	AdjustedDifferencePct *float64 `json:"porcentajeDifAjustado"`

	Position       *string `json:"posicion"`
	Recommendation string  `json:"recomendacion"`
	MarketAnalysis string  `json:"analisisMercado"`

	ValuePerKm *float64 `json:"vdk"`
	Retention  *float64 `json:"tre"`
	AVPPrice   *float64 `json:"precioAvp"`

	Details []competitorDTO `json:"competidoresDetalle"`
}

type competitorDTO struct {
	ID                string   `json:"id"`
	Dealer            string   `json:"concesionario"`
	Model             string   `json:"modelo"`
	Price             *float64 `json:"precio"`
	NewPrice          *float64 `json:"precioNuevo"`
	Km                *int     `json:"km"`
	Year              *int     `json:"año"`
	Days              *int     `json:"dias"`
	URL               string   `json:"url"`
	Score             *float64 `json:"score"`
	PriceDrops        int      `json:"numeroBajadas"`
	PriceDroppedTotal float64  `json:"importeTotalBajado"`
	OwnGroup          bool     `json:"grupoPropio"`
	Source            string   `json:"fuente"`
}

func toListResponse(r service.Report) listResponse {
	out := listResponse{
		Success: true,
		Stats: statsDTO{
			OverallPosition: r.Stats.OverallPosition,
			AvgOwnPrice:     r.Stats.AvgOwnPrice.InexactFloat64(),
			AvgMarketPrice:  r.Stats.AvgMarketPrice.InexactFloat64(),
			Opportunities:   r.Stats.Opportunities,
			Total:           r.Stats.Total,
		},
		Vehicles: make([]priceAnalysis, 0, len(r.Vehicles)),
		Count:    len(r.Vehicles),
	}
	for _, a := range r.Vehicles {
		out.Vehicles = append(out.Vehicles, toPriceAnalysis(a))
	}
	return out
}

func toPriceAnalysis(a pricing.Analysis) priceAnalysis {
	v := a.Vehicle
	dto := priceAnalysis{
		ID:               v.ID,
		Plate:            v.LicensePlate,
		Model:            v.RawModel,
		CanonicalModel:   a.CanonicalModel,
		Year:             v.RegistrationYear,
		Km:               v.MileageKm,
		RegistrationDate: v.RegistrationDate,
		URL:              v.ListingURL,
		ListPrice:        money(v.ListPrice),
		NewPrice:         money(v.OriginalNewPrice),
		OwnDiscount:      percent(a.OwnDiscount),
		Range:            string(a.Range),
		Equipment:        text(string(a.Equipment)),
		DaysInStock:      v.DaysInStock,

		AvgPrice:         money(a.Market.AvgPrice),
		MinPrice:         money(a.Market.MinPrice),
		MaxPrice:         money(a.Market.MaxPrice),
		AvgDiscount:      percent(a.Market.AvgDiscount),
		AvgKm:            rounded(a.Market.AvgMileage, 0),
		AvgYear:          rounded(a.Market.AvgYear, 1),
		Competitors:      a.CompetitorCount,
		CompetitorsTotal: a.CompetitorTotal,
		Narrowed:         a.Market.Narrowed,

		ExpectedValue: money(a.Theoretical.ExpectedValue),
		MileageAdj:    money(a.Theoretical.MileageAdj),
		AgeAdj:        money(a.Theoretical.AgeAdj),
		Score:         rounded(a.Theoretical.Score, 2),
		MarketScore:   rounded(a.Theoretical.MarketScore, 2),
		ScoreDiff:     rounded(a.Theoretical.ScoreDiff, 2),

		BasePrice:        money(a.Trail.Base),
		AdjustedPrice:    money(a.Trail.Adjusted),
		StaleCapped:      money(a.Trail.StaleCapped),
		UrgencyCapped:    money(a.Trail.UrgencyCapped),
		Recommended:      money(a.Trail.Recommended),
		RequiredDiscount: percent(a.Stale.RequiredDiscount),
		Branch:           text(string(a.Trail.Branch)),

		Difference:            money(a.Difference),
		DifferencePct:         percent(a.DifferencePct),
		AdjustedDifference:    money(a.AdjustedDifference),
		AdjustedDifferencePct: percent(a.AdjustedDifferencePct),

		Position:       text(string(a.Position)),
		Recommendation: a.Recommendation,
		MarketAnalysis: a.MarketAnalysis,

		Details: make([]competitorDTO, 0, len(a.Competitors)),
	}
	if a.AVP.Pairs > 0 || a.AVP.Price.Valid {
		dto.ValuePerKm = rounded(&a.AVP.ValuePerKm, 4)
		dto.Retention = rounded(&a.AVP.Retention, 4)
		dto.AVPPrice = money(a.AVP.Price)
	}
	for _, c := range a.Competitors {
		dto.Details = append(dto.Details, competitorDTO{
			ID:                c.ID,
			Dealer:            c.Dealer,
			Model:             c.Model,
			Price:             money(c.Price),
			NewPrice:          money(c.NewPrice),
			Km:                c.MileageKm,
			Year:              c.RegistrationYear,
			Days:              c.DaysPublished,
			URL:               c.URL,
			Score:             rounded(c.Score, 2),
			PriceDrops:        c.PriceDrops,
			PriceDroppedTotal: c.PriceDroppedTotal.Round(2).InexactFloat64(),
			OwnGroup:          c.OwnGroup,
			Source:            c.Source,
		})
	}
	return dto
}

func money(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.Round(2).InexactFloat64()
	return &f
}

func percent(p *float64) *float64 { return rounded(p, 1) }

func rounded(p *float64, places int) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	scale := math.Pow(10, float64(places))
	f := math.Round(*p*scale) / scale
	return &f
}

func text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
