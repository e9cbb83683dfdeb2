package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/teamforge/crew/pkg/metrics"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithPrometheusRegistry(registry),
			metrics.WithNamespace("crew_test"),
			metrics.WithSubsystem("matching"),
		)
		So(m, ShouldNotBeNil)

		Convey("Then the registry should expose the registered metrics", func() {
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("Then recording through every helper should not panic", func() {
			So(func() {
				metrics.RecordRecommendationServed("one-way")
				metrics.RecordRecommendationServed("two-way")
				metrics.RecordRecommendationLatency(12.5)
				metrics.RecordRecommendationError()
				metrics.RecordCandidatesScored(42)
				metrics.RecordCandidatesFetched(200)
				metrics.RecordTeamSelection()
				metrics.RecordEmptyRecommendation()
				metrics.RecordCacheHit()
				metrics.RecordCacheMiss()
				metrics.RecordCacheInvalidation(3)
				metrics.UpdateCacheEntries(7)
				metrics.RecordLoaderBatch(10)
				metrics.RecordLoaderCacheHit()
				metrics.RecordLoaderCoalesced()
				metrics.RecordLoaderError()
				metrics.RecordProcessorChunk()
				metrics.RecordProcessorItemFailure()
				metrics.RecordStoreQueryLatency(1.2)
				metrics.RecordHTTPRequest("recommendations", "GET", "200")
				metrics.RecordHTTPRequestDuration("recommendations", "GET", "200", 3.1)
				metrics.UpdateSystemMemoryUsage(1 << 20)
				metrics.UpdateSystemGoroutineCount(8)
			}, ShouldNotPanic)
		})

		Convey("Then the shared registry should be gatherable", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
