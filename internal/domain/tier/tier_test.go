package tier

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/policy"
	"github.com/okian/comparador/internal/domain/types"
)

func TestClassifyRange(t *testing.T) {
	Convey("Given canonical models", t, func() {
		high := []string{"BMW X5 xDrive40d", "X6", "X7 M60i", "Serie 5 520d", "Serie 7 740d", "Serie 8 Gran Coupe", "i5 eDrive40", "i7", "iX xDrive40"}
		mid := []string{"X3 xDrive20d 204", "X4", "Serie 3 320d", "Serie 4 420i", "MINI Countryman Cooper S", "MINI Clubman", "i4 eDrive40", "iX3"}
		basic := []string{"X1 sDrive18i", "X2", "Serie 1 118d", "Serie 2 Active Tourer", "iX1 xDrive30", "MINI 3 Puertas Cooper S", "MINI Cooper SE", "Z4 20i", "Rolls-Royce Ghost"}

		Convey("Then high-range lines are high", func() {
			for _, m := range high {
				So(ClassifyRangeText(m), ShouldEqual, types.RangeHigh)
			}
		})
		Convey("Then mid-range lines are mid", func() {
			for _, m := range mid {
				So(ClassifyRangeText(m), ShouldEqual, types.RangeMid)
			}
		})
		Convey("Then everything else is basic", func() {
			for _, m := range basic {
				So(ClassifyRangeText(m), ShouldEqual, types.RangeBasic)
			}
		})
	})
}

func TestPercentile(t *testing.T) {
	Convey("Given xs = [10, 20, 30, 40]", t, func() {
		xs := []float64{10, 20, 30, 40}

		Convey("Then quartiles interpolate between ranks", func() {
			p := Summarize(xs)
			So(p.P25, ShouldAlmostEqual, 17.5, 1e-9)
			So(p.P50, ShouldAlmostEqual, 25, 1e-9)
			So(p.P75, ShouldAlmostEqual, 32.5, 1e-9)
			So(p.SampleCount, ShouldEqual, 4)
		})

		Convey("Then extremes are the min and max", func() {
			So(Percentile(xs, 0), ShouldEqual, 10)
			So(Percentile(xs, 100), ShouldEqual, 40)
		})

		Convey("Then a single value is every percentile", func() {
			So(Percentile([]float64{7}, 25), ShouldEqual, 7)
			So(Percentile(nil, 50), ShouldEqual, 0)
		})
	})
}

func TestPercentilesAreOrderInvariant(t *testing.T) {
	Convey("Given a shuffled copy of a price list", t, func() {
		xs := []float64{38500, 41200, 29900, 52000, 47750, 33100, 60400, 44000, 39999}
		want := Summarize(xs)
		rng := rand.New(rand.NewSource(7))

		Convey("Then the percentiles never change", func() {
			for i := 0; i < 20; i++ {
				shuffled := append([]float64(nil), xs...)
				rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
				So(Summarize(shuffled), ShouldResemble, want)
			}
		})

		Convey("Then the input is left untouched", func() {
			before := append([]float64(nil), xs...)
			Summarize(xs)
			So(xs, ShouldResemble, before)
		})
	})
}

func priced(r types.Range, prices ...float64) []Priced {
	out := make([]Priced, 0, len(prices))
	for _, p := range prices {
		out = append(out, Priced{Range: r, OriginalNewPrice: model.Price(p)})
	}
	return out
}

func TestComputePercentiles(t *testing.T) {
	Convey("Given a stock with a well populated mid range and a sparse high range", t, func() {
		p := policy.Default()
		stock := append(priced(types.RangeMid, 50000, 60000, 70000, 80000), priced(types.RangeHigh, 100000, 120000)...)
		stock = append(stock, Priced{Range: types.RangeMid})

		table := ComputePercentiles(stock, p)

		Convey("Then the mid range uses its own samples and skips missing prices", func() {
			So(table[types.RangeMid].Fallback, ShouldBeFalse)
			So(table[types.RangeMid].SampleCount, ShouldEqual, 4)
			So(table[types.RangeMid].P25, ShouldAlmostEqual, 57500, 1e-6)
		})

		Convey("Then the high range falls back to reference bands", func() {
			high := table[types.RangeHigh]
			So(high.Fallback, ShouldBeTrue)
			So(high.SampleCount, ShouldEqual, 2)
			So(high.P50, ShouldEqual, 105000)
			So(high.P25, ShouldAlmostEqual, 89250, 1e-6)
			So(high.P75, ShouldAlmostEqual, 120750, 1e-6)
		})

		Convey("Then an empty range still has an entry", func() {
			So(table[types.RangeBasic].Fallback, ShouldBeTrue)
			So(table[types.RangeBasic].P50, ShouldEqual, 35000)
		})
	})
}

func TestClassifyEquipment(t *testing.T) {
	Convey("Given a percentile table", t, func() {
		p := policy.Default()
		table := ComputePercentiles(priced(types.RangeMid, 50000, 60000, 70000, 80000), p)

		Convey("When the range has enough samples", func() {
			Convey("Then p25 and p75 bound the levels inclusively", func() {
				e, ok := ClassifyEquipment(types.RangeMid, model.Price(57500), table, p)
				So(ok, ShouldBeTrue)
				So(e, ShouldEqual, types.EquipmentBasic)

				e, _ = ClassifyEquipment(types.RangeMid, model.Price(65000), table, p)
				So(e, ShouldEqual, types.EquipmentMid)

				e, _ = ClassifyEquipment(types.RangeMid, model.Price(72500), table, p)
				So(e, ShouldEqual, types.EquipmentPremium)
			})
		})

		Convey("When the range uses the fallback", func() {
			Convey("Then a ±10% deviation from the reference decides", func() {
				e, _ := ClassifyEquipment(types.RangeHigh, model.Price(94500), table, p)
				So(e, ShouldEqual, types.EquipmentBasic)

				e, _ = ClassifyEquipment(types.RangeHigh, model.Price(100000), table, p)
				So(e, ShouldEqual, types.EquipmentMid)

				e, _ = ClassifyEquipment(types.RangeHigh, model.Price(115500), table, p)
				So(e, ShouldEqual, types.EquipmentPremium)
			})
		})

		Convey("When the original price is missing", func() {
			_, ok := ClassifyEquipment(types.RangeMid, decimal.NullDecimal{}, table, p)

			Convey("Then there is no equipment level", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}
