package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the perfil namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.profilesAggregated.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "perfil_engine_profiles_aggregated_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and labels follow the options", func() {
				manager.narrations.Inc()
				expected := `
# HELP test_ns_test_sub_pfx_narrations_total Total number of insight sets rendered
# TYPE test_ns_test_sub_pfx_narrations_total counter
test_ns_test_sub_pfx_narrations_total{env="test"} 1
`
				So(testutil.GatherAndCompare(registry, strings.NewReader(expected),
					"test_ns_test_sub_pfx_narrations_total"), ShouldBeNil)
				So(manager.refreshInterval, ShouldEqual, 10*time.Second)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When options receive empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "perfil")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording engine metrics", func() {
			before := testutil.ToFloat64(globalManager.profilesAggregated)
			RecordProfileAggregated()
			RecordProfileAggregated()
			RecordIncompleteInstrument("disc")
			RecordAggregationLatency(1.5)
			RecordNarration()
			RecordClassAggregation()
			RecordClassAggregationLatency(12)
			RecordExport("csv")
			RecordResponseStored()
			RecordResponseDuplicate()
			RecordScoringError()

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.profilesAggregated), ShouldEqual, before+2)
				So(testutil.ToFloat64(globalManager.incompleteInstruments.WithLabelValues("disc")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.exports.WithLabelValues("csv")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording cache metrics", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits)
			RecordCacheHit()
			RecordCacheMiss()
			RecordCacheEviction()
			UpdateCacheSize(42)

			Convey("Then gauges and counters reflect the calls", func() {
				So(testutil.ToFloat64(globalManager.cacheHits), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.cacheSize), ShouldEqual, 42)
			})
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.03)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(4)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(3)
				UpdateWorkerMessagesPerSecond(2.5)
				RecordWorkerProcessingLatency(20)
				RecordWorkerError()
				RecordWorkerRetry()
				RecordReportDelivery("sent")
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
			So(testutil.ToFloat64(globalManager.workerIdleCount), ShouldEqual, 3)
		})

		Convey("When recording repository, AI, HTTP, error and system metrics", func() {
			So(func() {
				UpdateRepositoryRecords("students", 10)
				RecordRepositoryUpdateLatency(1)
				RecordRepositoryQueryLatency(1)
				RecordAIRequest("suggest", "offline")
				RecordAIError("suggest")
				RecordAILatency(300)
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 0.4)
				RecordErrorByComponent("api", "validation")
				RecordErrorByType("validation", "warning")
				RecordErrorByEndpoint("/responses", "POST", "validation")
				RecordErrorLatency("api", "validation", 2)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.repositoryRecords.WithLabelValues("students")), ShouldEqual, 10)
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
