package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered under the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.RecordSnapshotPage()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "comparador_pricing_snapshot_pages_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("dealer"),
				WithSubsystem("test"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and labels follow the options", func() {
				manager.RecordAnalysisRun("full", "ok", 12)
				expected := `
# HELP dealer_test_analysis_runs_total Analysis requests by kind (full, vehicle) and outcome
# TYPE dealer_test_analysis_runs_total counter
dealer_test_analysis_runs_total{env="test",kind="full",outcome="ok"} 1
`
				So(testutil.GatherAndCompare(registry, strings.NewReader(expected), "dealer_test_analysis_runs_total"), ShouldBeNil)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When vehicles are analyzed", func() {
			manager.RecordVehicleAnalyzed(4, "alto", "standard")
			manager.RecordVehicleAnalyzed(0, "", "")
			manager.RecordVehicleAnalyzed(2, "alto", "aggressive")

			Convey("Then counters reflect verdicts and branches", func() {
				So(testutil.ToFloat64(manager.vehiclesAnalyzed), ShouldEqual, 3)
				So(testutil.ToFloat64(manager.positions.WithLabelValues("alto")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.recommendationBranches.WithLabelValues("aggressive")), ShouldEqual, 1)
			})
		})

		Convey("When snapshot reads are recorded", func() {
			manager.RecordSnapshotRead("competitors", 2500, 40)
			manager.RecordSnapshotPage()
			manager.RecordSnapshotPage()
			manager.RecordUpstreamError("stock")

			Convey("Then the gauges and counters are updated", func() {
				So(testutil.ToFloat64(manager.snapshotRows.WithLabelValues("competitors")), ShouldEqual, 2500)
				So(testutil.ToFloat64(manager.snapshotPages), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.upstreamErrors.WithLabelValues("stock")), ShouldEqual, 1)
			})
		})

		Convey("When HTTP traffic and errors are recorded", func() {
			manager.RecordHTTPRequest("pricing_analysis", "GET", "200", 30)
			manager.RecordError("pricing_analysis", "GET", "upstream", "high", 30)
			manager.RecordErrorByComponent("repository", "query")

			Convey("Then each vector holds one sample", func() {
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("pricing_analysis", "GET", "200")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.errorRateByEndpoint.WithLabelValues("pricing_analysis", "GET", "upstream")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.errorRateByComponent.WithLabelValues("repository", "query")), ShouldEqual, 1)
			})
		})
	})
}

func TestDisabledManager(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

		Convey("When recording", func() {
			manager.RecordSnapshotPage()
			manager.UpdateSystem(1024, 8)

			Convey("Then nothing changes", func() {
				So(testutil.ToFloat64(manager.snapshotPages), ShouldEqual, 0)
				So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the process-wide manager", t, func() {
		Convey("Then the helpers never panic", func() {
			So(func() {
				RecordAnalysisRun("vehicle", "not_found", 3)
				RecordVehicleAnalyzed(1, "justo", "standard")
				RecordSnapshotRead("stock", 10, 2)
				RecordSnapshotPage()
				RecordUpstreamError("competitors")
				RecordHTTPRequest("healthz", "GET", "200", 1)
				RecordError("pricing_analysis", "GET", "bad_request", "low", 1)
				RecordErrorByComponent("service", "cancelled")
				UpdateSystem(2048, 4)
				RecordGCPause(0.3)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
