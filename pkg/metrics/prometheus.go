// Package metrics provides Prometheus metrics for the beacon service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       prometheus.Registerer

	// Team posts and applications
	postsCreated         prometheus.Counter
	postsPurged          prometheus.Counter
	postsTotal           prometheus.Gauge
	applicationsAccepted prometheus.Counter
	applicationsRejected *prometheus.CounterVec
	applicationsReplayed prometheus.Counter
	eventsCreated        prometheus.Counter

	// Promotion pipeline
	promotionsEmitted    prometheus.Counter
	promotionsDropped    prometheus.Counter
	promotionsDispatched *prometheus.CounterVec
	dispatchLatency      prometheus.Histogram
	queueSize            prometheus.Gauge
	queueCapacity        prometheus.Gauge
	workerCount          prometheus.Gauge

	// Storage
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP and streaming
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	streamClients       prometheus.Gauge

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "beacon",
		subsystem:      "teams",
		latencyBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.postsCreated = m.counter("posts_created_total", "Total number of team posts created")
	m.postsPurged = m.counter("posts_purged_total", "Total number of expired team posts purged by the sweeper")
	m.postsTotal = m.gauge("posts", "Current number of stored team posts")
	m.applicationsAccepted = m.counter("applications_accepted_total", "Total number of accepted applications")
	m.applicationsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "applications_rejected_total",
		Help:      "Total number of rejected applications by reason",
	}, []string{"reason"})
	m.applicationsReplayed = m.counter("applications_replayed_total", "Application submissions recognized as idempotent replays")
	m.eventsCreated = m.counter("events_created_total", "Total number of catalog events created")

	m.promotionsEmitted = m.counter("promotions_emitted_total", "Promotion events accepted onto the queue")
	m.promotionsDropped = m.counter("promotions_dropped_total", "Promotion events dropped because the queue was full or closed")
	m.promotionsDispatched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "promotions_dispatched_total",
		Help:      "Promotion events handed to the pods notifier by outcome",
	}, []string{"outcome"})
	m.dispatchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "promotion_dispatch_latency_milliseconds",
		Help:      "Latency of delivering one promotion event to the pods notifier",
		Buckets:   m.latencyBuckets,
	})
	m.queueSize = m.gauge("promotion_queue_size", "Current backlog of the promotion queue")
	m.queueCapacity = m.gauge("promotion_queue_capacity", "Configured capacity of the promotion queue")
	m.workerCount = m.gauge("promotion_worker_count", "Number of promotion dispatch workers")

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Post store operation latency",
		Buckets:   m.latencyBuckets,
	}, []string{"operation"})
	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Post store operation failures",
	}, []string{"operation"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.streamClients = m.gauge("stream_clients", "Connected live stream websocket clients")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordPostCreated increments the created posts counter.
func RecordPostCreated() { globalManager.postsCreated.Inc() }

// RecordPostsPurged adds n purged posts.
func RecordPostsPurged(n int) { globalManager.postsPurged.Add(float64(n)) }

// UpdatePostsTotal sets the stored posts gauge.
func UpdatePostsTotal(n int) { globalManager.postsTotal.Set(float64(n)) }

// RecordApplicationAccepted increments the accepted applications counter.
func RecordApplicationAccepted() { globalManager.applicationsAccepted.Inc() }

// RecordApplicationRejected counts a rejected application with its reason.
func RecordApplicationRejected(reason string) {
	globalManager.applicationsRejected.WithLabelValues(reason).Inc()
}

// RecordApplicationReplayed counts an idempotent replay.
func RecordApplicationReplayed() { globalManager.applicationsReplayed.Inc() }

// RecordEventCreated increments the catalog events counter.
func RecordEventCreated() { globalManager.eventsCreated.Inc() }

// RecordPromotionEmitted counts an enqueued promotion event.
func RecordPromotionEmitted() { globalManager.promotionsEmitted.Inc() }

// RecordPromotionDropped counts a promotion event that could not be enqueued.
func RecordPromotionDropped() { globalManager.promotionsDropped.Inc() }

// RecordPromotionDispatched counts a delivery attempt by outcome ("ok", "error").
func RecordPromotionDispatched(outcome string) {
	globalManager.promotionsDispatched.WithLabelValues(outcome).Inc()
}

// RecordDispatchLatency observes notifier latency in milliseconds.
func RecordDispatchLatency(ms float64) { globalManager.dispatchLatency.Observe(ms) }

// UpdateQueueSize sets the promotion queue backlog.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the promotion queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateWorkerCount sets the number of dispatch workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordStoreLatency observes a store operation latency in milliseconds.
func RecordStoreLatency(operation string, ms float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(ms)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateStreamClients sets the number of connected stream clients.
func UpdateStreamClients(n int) { globalManager.streamClients.Set(float64(n)) }

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
