package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/comparador/internal/domain/types"
)

func euros(d decimal.Decimal) string { return d.StringFixed(0) + "€" }

// mileageClause renders "X km menos" or "X km más" against the market average.
func mileageClause(in Input, m MarketStats) (string, bool) {
	if in.Vehicle.MileageKm == nil || m.AvgMileage == nil {
		return "", false
	}
	diff := float64(*in.Vehicle.MileageKm) - *m.AvgMileage
	word := "menos"
	if diff > 0 {
		word = "más"
	}
	return fmt.Sprintf("%.0f km %s", math.Abs(diff), word), true
}

// narrative is the sales-desk recommendation text.
func (e *Engine) narrative(in Input, a Analysis) string {
	t := a.Trail
	if !t.Recommended.Valid {
		if a.Market.Count == 0 {
			return "Sin comparables en el mercado: no es posible recomendar un precio"
		}
		return "Datos insuficientes para recomendar un precio"
	}
	rec := t.Recommended.Decimal
	km, hasKm := mileageClause(in, a.Market)

	var b strings.Builder
	switch a.Position {
	case types.PositionCompetitive:
		b.WriteString("Excelente precio. ")
		if hasKm {
			fmt.Fprintf(&b, "Tienes %s que la competencia, ", km)
		}
		fmt.Fprintf(&b, "tu precio ajustado es %.1f%% mejor. Puedes mantener o subir hasta %s",
			math.Abs(*a.AdjustedDifferencePct), euros(rec))
	case types.PositionHigh:
		b.WriteString("Precio elevado. ")
		if hasKm {
			fmt.Fprintf(&b, "Con %s que la competencia, ", km)
		}
		fmt.Fprintf(&b, "deberías estar en %s (%.1f%% menos)", euros(rec),
			a.AdjustedDifference.Decimal.Div(in.Vehicle.ListPrice.Decimal).Mul(hundred).InexactFloat64())
	case types.PositionFair:
		b.WriteString("Precio adecuado")
		if hasKm {
			fmt.Fprintf(&b, " considerando tus %d km vs %.0f km de media del mercado", *in.Vehicle.MileageKm, *a.Market.AvgMileage)
		}
	default:
		fmt.Fprintf(&b, "Precio recomendado: %s", euros(rec))
	}

	switch t.Branch {
	case types.BranchBonus:
		fmt.Fprintf(&b, ". Gama alta con equipamiento básico: se parte del mínimo del mercado (%s) con bonificación por km y antigüedad", euros(t.Base.Decimal))
	case types.BranchAggressive:
		fmt.Fprintf(&b, ". Gama alta con equipamiento básico: hay que situarse por debajo del mínimo del mercado (%s)", euros(t.Base.Decimal))
	}

	if s := a.Stale; s.Triggered {
		fmt.Fprintf(&b, ". Competidores con más de %d días publicados descuentan hasta un %.1f%%: descuento mínimo requerido %.1f%% (%s)",
			e.p.StaleDays, *s.MaxDiscount, *s.RequiredDiscount, euros(s.Cap.Decimal))
	}

	if t.LongStockCut {
		fmt.Fprintf(&b, ". ⚠️ URGENTE: Lleva %d días en stock. Precio para venta rápida: %s",
			*in.Vehicle.DaysInStock, euros(rec))
	}
	return b.String()
}

// marketAnalysis compares the market average to the theoretical value.
func (e *Engine) marketAnalysis(a Analysis) string {
	ev := a.Theoretical.ExpectedValue
	avg := a.Market.AvgPrice
	if !ev.Valid || !avg.Valid || !ev.Decimal.IsPositive() {
		return ""
	}
	pct := avg.Decimal.Sub(ev.Decimal).Div(ev.Decimal).Mul(hundred).InexactFloat64()
	switch {
	case pct > e.p.MarketBand:
		return fmt.Sprintf("📈 Mercado inflado: la competencia está un %.1f%% por encima del valor teórico (%s)", pct, euros(ev.Decimal))
	case pct < -e.p.MarketBand:
		return fmt.Sprintf("📉 Mercado deflactado: la competencia está un %.1f%% por debajo del valor teórico (%s)", math.Abs(pct), euros(ev.Decimal))
	default:
		return fmt.Sprintf("📊 Mercado equilibrado: la competencia está en línea con el valor teórico (%s)", euros(ev.Decimal))
	}
}
