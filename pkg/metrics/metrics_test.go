package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("engine"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"league": "mlb"}),
				WithPrometheusRegistry(registry),
			)
			manager.featureRows.Inc()

			Convey("Then series carry the namespace, subsystem and const labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "test_engine_feature_rows_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "mlb")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then duplicate registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording engine metrics", func() {
			before := testutil.ToFloat64(globalManager.gamesProcessed)
			RecordGameProcessed()
			RecordGameProcessed()
			RecordGameSkipped("duplicate")
			RecordFeatureRow()
			RecordSeasonReset()
			UpdateTrackedEntities(30, 412)

			Convey("Then counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.gamesProcessed)-before, ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.gamesSkipped.WithLabelValues("duplicate")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.teamsTracked), ShouldEqual, 30)
				So(testutil.ToFloat64(globalManager.pitchersTracked), ShouldEqual, 412)
			})
		})

		Convey("When recording sink writes", func() {
			before := testutil.ToFloat64(globalManager.sinkRows.WithLabelValues("csv"))
			RecordSinkWrite("csv", "ok", 120)
			RecordSinkWrite("csv", "error", 50)

			Convey("Then only successful rows are counted", func() {
				So(testutil.ToFloat64(globalManager.sinkRows.WithLabelValues("csv"))-before, ShouldEqual, 120)
			})
		})

		Convey("When recording acquisition, simulation and HTTP metrics", func() {
			So(func() {
				RecordDetailFetch("ok", 35)
				RecordFetchRetry("feed")
				RecordScheduleChunk("ok")
				RecordCacheRequest("hit")
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				RecordQueueRejected()
				UpdateWorkerCount(8)
				RecordWorkerProcessingLatency(12)
				RecordWorkerError()
				RecordSimulation(1000, 4, 250)
				RecordPrediction("ok")
				RecordHTTPRequest("projections", "GET", "200")
				RecordHTTPRequestDuration("projections", "GET", "200", 3)
				RecordErrorByComponent("statsapi", "timeout")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)

			Convey("Then they are exposed on the custom registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "bullpen_pipeline_simulation_replays_total")
				So(joined, ShouldContainSubstring, "bullpen_pipeline_detail_fetches_total")
			})
		})
	})
}
