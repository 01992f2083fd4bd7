package types_test

import (
	"testing"

	types "github.com/okian/comparador/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParsePosition(t *testing.T) {
	Convey("Given estado filter values", t, func() {
		Convey("When they are known verdicts", func() {
			Convey("Then they parse regardless of case and padding", func() {
				p, err := types.ParsePosition(" Alto ")
				So(err, ShouldBeNil)
				So(p, ShouldEqual, types.PositionHigh)

				p, err = types.ParsePosition("competitivo")
				So(err, ShouldBeNil)
				So(p, ShouldEqual, types.PositionCompetitive)
			})
		})

		Convey("When the value is unknown", func() {
			_, err := types.ParsePosition("barato")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestListingStatusEligible(t *testing.T) {
	Convey("Given listing statuses", t, func() {
		Convey("Then only live statuses are eligible", func() {
			So(types.StatusActive.Eligible(), ShouldBeTrue)
			So(types.StatusNew.Eligible(), ShouldBeTrue)
			So(types.StatusPriceDropped.Eligible(), ShouldBeTrue)
			So(types.StatusPriceRaised.Eligible(), ShouldBeTrue)
			So(types.StatusSold.Eligible(), ShouldBeFalse)
			So(types.ListingStatus("").Eligible(), ShouldBeFalse)
		})
	})
}
