package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("funnel"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then registration should not panic and gather should work", func() {
				So(manager, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("Then recording through them should not panic", func() {
			So(func() {
				RecordCandidateRegistered()
				RecordStageTransition("shortlisted")
				RecordGateDecision("ats", "pass")
				RecordStageNoop()
				RecordTokenIssued()
				RecordTokenConsumed()
				RecordTokenInvalidated()
				RecordTokenRejection("consume", "already_consumed")
				RecordStoreConflict()
				RecordStoreUpdateLatency(1.5)
				RecordStoreQueryLatency(0.2)
				UpdateStoreRecordsTotal(10)
				UpdateStoreShardCount(8)
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.03)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordNotificationSent("interview_invite")
				RecordNotificationFailed("rejection")
				RecordNotificationRetry()
				RecordNotificationDuplicate()
				RecordNotificationDeliveryLatency(12)
				UpdateWorkerCount(4)
				RecordHTTPRequest("candidates", "POST", "201")
				RecordHTTPRequestDuration("candidates", "POST", "201", 3.2)
			}, ShouldNotPanic)
		})

		Convey("Then the shared registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
