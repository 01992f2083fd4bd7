package policy

import (
	"errors"
	"testing"

	"github.com/okian/comparador/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultPolicy(t *testing.T) {
	Convey("Given the default policy", t, func() {
		p := Default()

		Convey("Then it validates", func() {
			So(p.Validate(), ShouldBeNil)
		})

		Convey("Then per-range lookups follow the tier", func() {
			So(p.ReferencePrice(types.RangeBasic), ShouldEqual, 35000)
			So(p.ReferencePrice(types.RangeMid), ShouldEqual, 55000)
			So(p.ReferencePrice(types.RangeHigh), ShouldEqual, 105000)
			So(p.PerKm(types.RangeBasic), ShouldEqual, 0.10)
			So(p.PerKm(types.RangeMid), ShouldEqual, 0.15)
			So(p.PerKm(types.RangeHigh), ShouldEqual, 0.20)
		})

		Convey("Then the floor is relaxed only for mid range with basic equipment", func() {
			So(p.Floor(types.RangeMid, types.EquipmentBasic), ShouldEqual, 0.75)
			So(p.Floor(types.RangeMid, types.EquipmentMid), ShouldEqual, 0.80)
			So(p.Floor(types.RangeHigh, types.EquipmentBasic), ShouldEqual, 0.80)
			So(p.Floor(types.RangeBasic, ""), ShouldEqual, 0.80)
		})
	})
}

func TestIsOwnGroup(t *testing.T) {
	Convey("Given dealer names from competitor listings", t, func() {
		p := Default()

		Convey("Then group dealers are recognised case-insensitively", func() {
			So(p.IsOwnGroup("QUADIS Motor Sport"), ShouldBeTrue)
			So(p.IsOwnGroup("Duc Automoción"), ShouldBeTrue)
			So(p.IsOwnGroup("Oliva Motor"), ShouldBeFalse)
			So(p.IsOwnGroup(""), ShouldBeFalse)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a policy with a broken constant", t, func() {
		cases := map[string]func(*Policy){
			"negative per km":     func(p *Policy) { p.PerKmMid = -0.1 },
			"zero floor":          func(p *Policy) { p.FloorRatio = 0 },
			"huge ceiling":        func(p *Policy) { p.CeilingRatio = 3 },
			"no samples":          func(p *Policy) { p.MinPercentileSamples = 0 },
			"no markers":          func(p *Policy) { p.OwnGroupMarkers = nil },
			"bad age factor":      func(p *Policy) { p.AgeFactors = []float64{0.85, 1.2} },
			"empty age factors":   func(p *Policy) { p.AgeFactors = nil },
			"zero reference":      func(p *Policy) { p.ReferencePriceHigh = 0 },
			"negative tolerance":  func(p *Policy) { p.CVTolerance = -1 },
			"negative stale days": func(p *Policy) { p.StaleDays = -5 },
		}
		for name, mutate := range cases {
			p := Default()
			mutate(&p)

			Convey("Then validation fails for "+name, func() {
				err := p.Validate()
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrInvalidPolicy), ShouldBeTrue)
			})
		}
	})
}
