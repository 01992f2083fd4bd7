package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/comparador/internal/app"
	"github.com/okian/comparador/internal/adapters/repository"
	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/types"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func stock() []model.StockVehicle {
	return []model.StockVehicle{
		{
			ID: "v1", RawModel: "X3 xDrive20d 204", ListPrice: model.Price(33000),
			MileageKm: model.Ptr(40000), RegistrationYear: model.Ptr(2022),
		},
		{
			ID: "v2", RawModel: "X3 xDrive20d 204", ListPrice: model.Price(40000),
			MileageKm: model.Ptr(50000), RegistrationYear: model.Ptr(2022),
		},
		{
			ID: "v3", RawModel: "118i", ListPrice: model.Price(21000),
			MileageKm: model.Ptr(30000), RegistrationYear: model.Ptr(2021),
		},
	}
}

func competitor(id, dealer string, price float64, status types.ListingStatus) model.CompetitorListing {
	return model.CompetitorListing{
		ID:               id,
		ListingID:        "ad-" + id,
		Source:           "coches.net",
		RawModel:         "BMW X3 xDrive20d 140 kW (204 CV)",
		DealerName:       dealer,
		RegistrationYear: model.Ptr(2022),
		MileageKm:        model.Ptr(50000),
		AskingPrice:      model.Price(price),
		Status:           status,
	}
}

func market() []model.CompetitorListing {
	return []model.CompetitorListing{
		competitor("1", "Automóviles Fersan", 30000, types.StatusActive),
		competitor("2", "Autos Ibiza", 32000, types.StatusNew),
		competitor("3", "Motor Sport", 34000, types.StatusPriceDropped),
		competitor("4", "Quadis Motor", 10000, types.StatusActive),
		competitor("5", "Autos Ibiza", 1000, types.StatusSold),
	}
}

// secondPageFails serves the first competitor page and fails afterwards.
type secondPageFails struct {
	*repository.MemoryStore
	calls int
}

func (r *secondPageFails) CompetitorPage(ctx context.Context, f repository.CompetitorFilter, offset, limit int) ([]model.CompetitorListing, error) {
	r.calls++
	if r.calls > 1 {
		return nil, errors.New("connection reset by peer")
	}
	return r.MemoryStore.CompetitorPage(ctx, f, offset, limit)
}

func newService(store *repository.MemoryStore) *service.Service {
	return service.New(
		service.WithStockReader(store),
		service.WithCompetitorReader(store),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithConcurrency(4),
		service.WithPageSize(2),
	)
}

func TestServiceAnalyze(t *testing.T) {
	Convey("Given a stock of three vehicles and a small market", t, func() {
		store := repository.NewMemoryStore(stock(), market())
		svc := newService(store)
		ctx := context.Background()

		Convey("When the whole stock is analysed", func() {
			report, err := svc.Analyze(ctx, service.Query{})
			So(err, ShouldBeNil)

			Convey("Then vehicles come back in stock order", func() {
				So(report.Vehicles, ShouldHaveLength, 3)
				So(report.Vehicles[0].Vehicle.ID, ShouldEqual, "v1")
				So(report.Vehicles[1].Vehicle.ID, ShouldEqual, "v2")
				So(report.Vehicles[2].Vehicle.ID, ShouldEqual, "v3")
				So(report.RunID, ShouldNotBeEmpty)
				So(report.GeneratedAt, ShouldEqual, fixedNow)
			})

			Convey("Then own-group and sold listings stay out of the market", func() {
				v1 := report.Vehicles[0]
				So(v1.Market.Count, ShouldEqual, 3)
				So(v1.CompetitorCount, ShouldEqual, 3)
				So(v1.CompetitorTotal, ShouldEqual, 4)
				So(v1.Market.AvgPrice.Decimal.String(), ShouldEqual, "32000")
			})

			Convey("Then each vehicle is priced against its comparables", func() {
				So(report.Vehicles[0].Trail.Recommended.Decimal.String(), ShouldEqual, "33500")
				So(report.Vehicles[0].Position, ShouldEqual, types.PositionFair)
				So(report.Vehicles[1].Trail.Recommended.Decimal.String(), ShouldEqual, "32000")
				So(report.Vehicles[1].Position, ShouldEqual, types.PositionHigh)
			})

			Convey("Then a vehicle without comparables has no verdict", func() {
				v3 := report.Vehicles[2]
				So(v3.Market.Count, ShouldEqual, 0)
				So(v3.Trail.Recommended.Valid, ShouldBeFalse)
				So(v3.Position, ShouldEqual, types.Position(""))
			})

			Convey("Then the stats cover vehicles with a market average", func() {
				So(report.Stats.Total, ShouldEqual, 3)
				So(report.Stats.Opportunities, ShouldEqual, 1)
				So(report.Stats.AvgOwnPrice.String(), ShouldEqual, "36500")
				So(report.Stats.AvgMarketPrice.String(), ShouldEqual, "32000")
				So(report.Stats.OverallPosition, ShouldEqual, 14.1)
			})
		})

		Convey("When the analysis runs twice", func() {
			first, err1 := svc.Analyze(ctx, service.Query{})
			second, err2 := svc.Analyze(ctx, service.Query{})

			Convey("Then the results are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.RunID, ShouldNotEqual, second.RunID)
				for i := range first.Vehicles {
					So(second.Vehicles[i].Recommendation, ShouldEqual, first.Vehicles[i].Recommendation)
					So(second.Vehicles[i].Trail.Recommended.Decimal.String(), ShouldEqual,
						first.Vehicles[i].Trail.Recommended.Decimal.String())
				}
			})
		})

		Convey("When filtering by position", func() {
			report, err := svc.Analyze(ctx, service.Query{Position: types.PositionHigh})

			Convey("Then only matching vehicles and their stats remain", func() {
				So(err, ShouldBeNil)
				So(report.Vehicles, ShouldHaveLength, 1)
				So(report.Vehicles[0].Vehicle.ID, ShouldEqual, "v2")
				So(report.Stats.Total, ShouldEqual, 1)
				So(report.Stats.Opportunities, ShouldEqual, 1)
			})
		})

		Convey("When filtering by model", func() {
			report, err := svc.Analyze(ctx, service.Query{Model: "118I"})

			Convey("Then the match ignores case", func() {
				So(err, ShouldBeNil)
				So(report.Vehicles, ShouldHaveLength, 1)
				So(report.Vehicles[0].Vehicle.ID, ShouldEqual, "v3")
				So(report.Stats.AvgOwnPrice.IsZero(), ShouldBeTrue)
				So(report.Stats.OverallPosition, ShouldEqual, 0)
			})
		})

		Convey("When restricting competitors to another source", func() {
			report, err := svc.Analyze(ctx, service.Query{Source: "wallapop"})

			Convey("Then no vehicle has comparables", func() {
				So(err, ShouldBeNil)
				for _, a := range report.Vehicles {
					So(a.Market.Count, ShouldEqual, 0)
				}
			})
		})

		Convey("When a tolerance is invalid", func() {
			cv := -1
			_, errCV := svc.Analyze(ctx, service.Query{CVTolerance: &cv})
			year := math.NaN()
			_, errYear := svc.Analyze(ctx, service.Query{YearTolerance: &year})

			Convey("Then the query is rejected", func() {
				So(errors.Is(errCV, service.ErrInvalidTolerance), ShouldBeTrue)
				So(errors.Is(errYear, service.ErrInvalidTolerance), ShouldBeTrue)
			})
		})

		Convey("When a zero power tolerance excludes other engines", func() {
			other := competitor("6", "Motor Sport", 60000, types.StatusActive)
			other.RawModel = "BMW X3 xDrive20d 140 kW (190 CV)"
			store := repository.NewMemoryStore(stock(), append(market(), other))
			cv := 0
			report, err := newService(store).Analyze(ctx, service.Query{CVTolerance: &cv})

			Convey("Then only the exact power is compared", func() {
				So(err, ShouldBeNil)
				So(report.Vehicles[0].Market.Count, ShouldEqual, 3)
			})
		})

		Convey("When the snapshot cannot be read", func() {
			store.Fail(errors.New("connection refused"))
			_, err := svc.Analyze(ctx, service.Query{})

			Convey("Then the run aborts with an upstream error", func() {
				So(errors.Is(err, repository.ErrUpstreamRead), ShouldBeTrue)
			})
		})

		Convey("When a later competitor page fails", func() {
			reader := &secondPageFails{MemoryStore: store}
			svc := service.New(
				service.WithStockReader(store),
				service.WithCompetitorReader(reader),
				service.WithClock(func() time.Time { return fixedNow }),
				service.WithPageSize(2),
			)
			report, err := svc.Analyze(ctx, service.Query{})

			Convey("Then no partial report is returned", func() {
				So(errors.Is(err, repository.ErrUpstreamRead), ShouldBeTrue)
				So(reader.calls, ShouldEqual, 2)
				So(report.Vehicles, ShouldBeEmpty)
				So(report.Stats.Total, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service without readers", t, func() {
		_, err := service.New().Analyze(context.Background(), service.Query{})

		Convey("Then it reports that it is not configured", func() {
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
		})
	})
}

func TestServiceAnalyzeVehicle(t *testing.T) {
	Convey("Given the same stock and market", t, func() {
		svc := newService(repository.NewMemoryStore(stock(), market()))
		ctx := context.Background()

		Convey("When a known vehicle is requested", func() {
			a, err := svc.AnalyzeVehicle(ctx, "v2", service.Query{})

			Convey("Then it matches the list analysis", func() {
				So(err, ShouldBeNil)
				So(a.Vehicle.ID, ShouldEqual, "v2")
				So(a.Position, ShouldEqual, types.PositionHigh)
				So(a.Competitors, ShouldHaveLength, 4)
			})
		})

		Convey("When an unknown vehicle is requested", func() {
			_, err := svc.AnalyzeVehicle(ctx, "nope", service.Query{})

			Convey("Then it is not found", func() {
				So(errors.Is(err, service.ErrVehicleNotFound), ShouldBeTrue)
			})
		})
	})
}
