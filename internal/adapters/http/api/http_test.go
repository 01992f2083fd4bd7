package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/comparador/internal/adapters/http/api"
	"github.com/okian/comparador/internal/adapters/repository"
	service "github.com/okian/comparador/internal/app"
	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/pricing"
	"github.com/okian/comparador/internal/domain/types"
)

// recordingDeps captures the query the handler built.
type recordingDeps struct {
	query service.Query
	id    string
	err   error
}

func (d *recordingDeps) Analyze(_ context.Context, q service.Query) (service.Report, error) {
	d.query = q
	return service.Report{}, d.err
}

func (d *recordingDeps) AnalyzeVehicle(_ context.Context, id string, q service.Query) (pricing.Analysis, error) {
	d.id, d.query = id, q
	return pricing.Analysis{Vehicle: model.StockVehicle{ID: id}}, d.err
}

func fixtures() ([]model.StockVehicle, []model.CompetitorListing) {
	stock := []model.StockVehicle{
		{ID: "v1", LicensePlate: "1234ABC", RawModel: "X3 xDrive20d 204", ListPrice: model.Price(33000),
			MileageKm: model.Ptr(40000), RegistrationYear: model.Ptr(2022)},
		{ID: "v2", LicensePlate: "5678DEF", RawModel: "X3 xDrive20d 204", ListPrice: model.Price(40000),
			MileageKm: model.Ptr(50000), RegistrationYear: model.Ptr(2022)},
	}
	var market []model.CompetitorListing
	for i, price := range []float64{30000, 32000, 34000} {
		market = append(market, model.CompetitorListing{
			ID:               string(rune('1' + i)),
			Source:           "coches.net",
			RawModel:         "BMW X3 xDrive20d 140 kW (204 CV)",
			DealerName:       "Automóviles Fersan",
			RegistrationYear: model.Ptr(2022),
			MileageKm:        model.Ptr(50000),
			AskingPrice:      model.Price(price),
			Status:           types.StatusActive,
		})
	}
	return stock, market
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, nil).Register(context.Background(), mux)
	return mux
}

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestPricingAnalysisRoutes(t *testing.T) {
	Convey("Given the API backed by an in-memory snapshot", t, func() {
		stock, market := fixtures()
		store := repository.NewMemoryStore(stock, market)
		svc := service.New(
			service.WithStockReader(store),
			service.WithCompetitorReader(store),
			service.WithClock(func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }),
		)
		mux := newMux(svc)

		Convey("When listing the analysis", func() {
			w := get(mux, "/pricing-analysis")
			body := decode(w)

			Convey("Then the envelope carries stats and vehicles", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(body["success"], ShouldEqual, true)
				So(body["count"], ShouldEqual, 2.0)

				stats := body["stats"].(map[string]any)
				So(stats["oportunidades"], ShouldEqual, 1.0)
				So(stats["totalComparables"], ShouldEqual, 2.0)
				So(stats["precioMedioNuestro"], ShouldEqual, 36500.0)
				So(stats["precioMedioCompetencia"], ShouldEqual, 32000.0)
			})

			Convey("Then each vehicle carries its trail and verdict", func() {
				vehicles := body["vehiculos"].([]any)
				So(vehicles, ShouldHaveLength, 2)
				first := vehicles[0].(map[string]any)
				So(first["id"], ShouldEqual, "v1")
				So(first["matricula"], ShouldEqual, "1234ABC")
				So(first["gama"], ShouldEqual, "media")
				So(first["equipamiento"], ShouldBeNil)
				So(first["precioRecomendado"], ShouldEqual, 33500.0)
				So(first["rama"], ShouldEqual, "standard")
				So(first["posicion"], ShouldEqual, "justo")
				So(first["competidores"], ShouldEqual, 3.0)
				So(first["competidoresDetalle"], ShouldHaveLength, 3)
			})
		})

		Convey("When filtering by verdict", func() {
			w := get(mux, "/pricing-analysis?estado=alto")
			body := decode(w)

			Convey("Then only high-priced vehicles remain", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["count"], ShouldEqual, 1.0)
			})
		})

		Convey("When requesting one vehicle", func() {
			w := get(mux, "/pricing-analysis/v2")
			body := decode(w)

			Convey("Then the detail envelope is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["success"], ShouldEqual, true)
				data := body["data"].(map[string]any)
				So(data["id"], ShouldEqual, "v2")
				So(data["posicion"], ShouldEqual, "alto")
			})
		})

		Convey("When requesting an unknown vehicle", func() {
			w := get(mux, "/pricing-analysis/nope")
			body := decode(w)

			Convey("Then it returns 404 with details", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(body["error"], ShouldNotBeEmpty)
				So(body["details"], ShouldContainSubstring, "nope")
			})
		})

		Convey("When the snapshot cannot be read", func() {
			store.Fail(errors.New("connection reset"))
			w := get(mux, "/pricing-analysis")
			body := decode(w)

			Convey("Then it returns 500 with the upstream cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(body["details"], ShouldContainSubstring, "connection reset")
			})
		})
	})
}

func TestQueryParameters(t *testing.T) {
	Convey("Given a handler recording the parsed query", t, func() {
		deps := &recordingDeps{}
		mux := newMux(deps)

		Convey("When every parameter is set", func() {
			q := url.Values{}
			q.Set("source", "quadis")
			q.Set("modelo", "X3 xDrive20d 204")
			q.Set("estado", "Competitivo")
			q.Set("toleranciaCv", "10")
			q.Set("toleranciaAño", "1.5")
			w := get(mux, "/pricing-analysis?"+q.Encode())

			Convey("Then they reach the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.query.Source, ShouldEqual, "quadis")
				So(deps.query.Model, ShouldEqual, "X3 xDrive20d 204")
				So(deps.query.Position, ShouldEqual, types.PositionCompetitive)
				So(*deps.query.CVTolerance, ShouldEqual, 10)
				So(*deps.query.YearTolerance, ShouldEqual, 1.5)
			})
		})

		Convey("When filters are set to all", func() {
			w := get(mux, "/pricing-analysis?source=all&modelo=all&estado=all")

			Convey("Then no filter is applied", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.query, ShouldResemble, service.Query{})
			})
		})

		Convey("When a tolerance is malformed", func() {
			for _, target := range []string{
				"/pricing-analysis?toleranciaCv=abc",
				"/pricing-analysis?toleranciaCv=-1",
				"/pricing-analysis?toleranciaA%C3%B1o=x",
				"/pricing-analysis/v1?toleranciaA%C3%B1o=-2",
				"/pricing-analysis?estado=barato",
			} {
				w := get(mux, target)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["details"], ShouldNotBeEmpty)
			}
		})

		Convey("When the detail route is called", func() {
			w := get(mux, "/pricing-analysis/v9?source=coches.net")

			Convey("Then the id comes from the path", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.id, ShouldEqual, "v9")
				So(deps.query.Source, ShouldEqual, "coches.net")
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(&recordingDeps{})

		Convey("Then /healthz reports ok", func() {
			w := get(mux, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("Then /metrics serves the registry", func() {
			w := get(mux, "/metrics")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then a request id is generated when absent", func() {
			w := get(mux, "/healthz")
			So(w.Header().Get(api.HeaderRequestID), ShouldNotBeEmpty)
		})

		Convey("Then a request id sent by the client is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
		})

		Convey("Then other methods are rejected", func() {
			req := httptest.NewRequest(http.MethodPost, "/pricing-analysis", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
