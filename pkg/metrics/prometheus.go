// Package metrics provides Prometheus metrics for the funnel service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus instruments for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics
	candidatesRegistered prometheus.Counter
	stageTransitions     *prometheus.CounterVec
	gateDecisions        *prometheus.CounterVec
	stageNoops           prometheus.Counter

	// Token lifecycle metrics
	tokensIssued      prometheus.Counter
	tokensConsumed    prometheus.Counter
	tokensInvalidated prometheus.Counter
	tokenRejections   *prometheus.CounterVec

	// Store metrics
	storeRecordsTotal  prometheus.Gauge
	storeShardCount    prometheus.Gauge
	storeConflicts     prometheus.Counter
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// Notification dispatch metrics
	queueSize            prometheus.Gauge
	queueCapacity        prometheus.Gauge
	queueUtilization     prometheus.Gauge
	queueEnqueues        prometheus.Counter
	queueDequeues        prometheus.Counter
	queueEnqueueErrors   prometheus.Counter
	notifySent           *prometheus.CounterVec
	notifyFailed         *prometheus.CounterVec
	notifyRetries        prometheus.Counter
	notifyDuplicates     prometheus.Counter
	notifyDeliverLatency prometheus.Histogram
	workerCount          prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "funnel",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus instruments.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat registration list
	auto := promauto.With(m.registry)

	m.candidatesRegistered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_registered_total",
		Help:      "Candidates ingested into the pipeline",
	})
	m.stageTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_transitions_total",
		Help:      "Committed stage transitions by target stage",
	}, []string{"stage"})
	m.gateDecisions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gate_decisions_total",
		Help:      "Gate evaluations by gate and decision",
	}, []string{"gate", "decision"})
	m.stageNoops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_noops_total",
		Help:      "Advance events ignored because the candidate was already past the stage",
	})

	m.tokensIssued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tokens_issued_total",
		Help:      "Interview tokens minted",
	})
	m.tokensConsumed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tokens_consumed_total",
		Help:      "Interview tokens consumed successfully",
	})
	m.tokensInvalidated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tokens_invalidated_total",
		Help:      "Interview tokens superseded by a fresh issuance",
	})
	m.tokenRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "token_rejections_total",
		Help:      "Validate/consume rejections by reason; repeated already_consumed hits are a replay signal",
	}, []string{"op", "reason"})

	m.storeRecordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_records_total",
		Help:      "Candidate records held by the store",
	})
	m.storeShardCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_shard_count",
		Help:      "Number of store shards",
	})
	m.storeConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_conflicts_total",
		Help:      "Optimistic-concurrency commit failures (before retry)",
	})
	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_update_latency_milliseconds",
		Help:      "AtomicUpdate latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Read query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_size",
		Help:      "Notifications waiting for dispatch",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_capacity",
		Help:      "Configured notification queue capacity",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_utilization",
		Help:      "Queue fill ratio 0..1",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_enqueues_total",
		Help:      "Notifications accepted by the queue",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_dequeues_total",
		Help:      "Notifications handed to workers",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_enqueue_errors_total",
		Help:      "Enqueue rejections (closed queue or backpressure)",
	})
	m.notifySent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_sent_total",
		Help:      "Notifications delivered by kind",
	}, []string{"kind"})
	m.notifyFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_failed_total",
		Help:      "Notifications that exhausted retries, by kind",
	}, []string{"kind"})
	m.notifyRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_retries_total",
		Help:      "Individual delivery retries",
	})
	m.notifyDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_duplicates_total",
		Help:      "Notifications suppressed by the idempotency guard",
	})
	m.notifyDeliverLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_delivery_latency_milliseconds",
		Help:      "End-to-end delivery latency per notification",
		Buckets:   m.histogramBuckets,
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_worker_count",
		Help:      "Dispatch workers running",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration by endpoint, method and status",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Allocated heap bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Pipeline helpers.

func RecordCandidateRegistered() { globalManager.candidatesRegistered.Inc() }

func RecordStageTransition(stage string) {
	globalManager.stageTransitions.WithLabelValues(stage).Inc()
}
func RecordGateDecision(gate, decision string) {
	globalManager.gateDecisions.WithLabelValues(gate, decision).Inc()
}
func RecordStageNoop() { globalManager.stageNoops.Inc() }

// Token helpers.

func RecordTokenIssued() { globalManager.tokensIssued.Inc() }
func RecordTokenConsumed() { globalManager.tokensConsumed.Inc() }
func RecordTokenInvalidated() { globalManager.tokensInvalidated.Inc() }
func RecordTokenRejection(op, reason string) {
	globalManager.tokenRejections.WithLabelValues(op, reason).Inc()
}

// Store helpers.

func UpdateStoreRecordsTotal(count int) { globalManager.storeRecordsTotal.Set(float64(count)) }
func UpdateStoreShardCount(count int) { globalManager.storeShardCount.Set(float64(count)) }
func RecordStoreConflict() { globalManager.storeConflicts.Inc() }
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// Queue and notification helpers.

func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}
func RecordQueueEnqueue() { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue() { globalManager.queueDequeues.Inc() }
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }
func RecordNotificationSent(kind string) {
	globalManager.notifySent.WithLabelValues(kind).Inc()
}
func RecordNotificationFailed(kind string) {
	globalManager.notifyFailed.WithLabelValues(kind).Inc()
}
func RecordNotificationRetry() { globalManager.notifyRetries.Inc() }
func RecordNotificationDuplicate() { globalManager.notifyDuplicates.Inc() }
func RecordNotificationDeliveryLatency(latencyMs float64) {
	globalManager.notifyDeliverLatency.Observe(latencyMs)
}
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// HTTP helpers.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// System helpers.

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
