package metrics_test

import (
	"testing"

	"namearena/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithPrometheusRegistry(reg),
			metrics.WithNamespace("testns"),
			metrics.WithSubsystem("testsub"),
		)
		So(m, ShouldNotBeNil)

		Convey("Then all metrics register without collision", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			// Gauges report even before any write; counters appear on use.
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then the recorders never panic", func() {
			So(func() {
				metrics.RecordVoteProcessed()
				metrics.RecordVoteDuplicate()
				metrics.RecordUndo()
				metrics.RecordSessionStarted()
				metrics.RecordSessionCompleted()
				metrics.UpdateSessionsActive(3)
				metrics.UpdateTotalNames(12)
				metrics.RecordRatingLatency(0.4)
				metrics.RecordResultArchived()
				metrics.RecordArchiveError()
				metrics.UpdateQueueSize(1)
				metrics.UpdateQueueCapacity(100)
				metrics.UpdateQueueUtilization(0.01)
				metrics.RecordQueueEnqueue()
				metrics.RecordQueueDequeue()
				metrics.RecordQueueEnqueueError()
				metrics.UpdateWorkerActiveCount(2)
				metrics.RecordWorkerError()
				metrics.RecordWorkerLatency(1.2)
				metrics.RecordStoreUpdateLatency(0.2)
				metrics.RecordStoreQueryLatency(0.1)
				metrics.RecordHTTPRequest("votes", "POST", "200")
				metrics.RecordHTTPRequestDuration("votes", "POST", "200", 2.5)
				metrics.RecordErrorByComponent("queue", "closed")
				metrics.RecordErrorByEndpoint("votes", "POST", "client_error")
				metrics.UpdateSystemMemoryUsage(1 << 20)
				metrics.UpdateSystemGoroutineCount(8)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry gathers", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
