package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	answersSubmittedTotal  *prometheus.CounterVec
	submissionsTotal       *prometheus.CounterVec
	notificationsFannedOut prometheus.Counter
	notificationsPublished *prometheus.CounterVec
	progressCacheTotal     *prometheus.CounterVec
	realtimeClientsActive  prometheus.Gauge
	uploadsStored          *prometheus.CounterVec
	uploadsRejected        *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors exposed by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lms_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		answersSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_answers_submitted_total",
			Help: "Quiz answers recorded, partitioned by correctness.",
		}, []string{"correct"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_submissions_total",
			Help: "Assignment submissions recorded, partitioned by timeliness.",
		}, []string{"status"})

		notificationsFannedOut = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_notifications_fanned_out_total",
			Help: "Notifications created by live class fan-out.",
		})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_notifications_published_total",
			Help: "Notifications delivered to realtime subscribers.",
		}, []string{"type"})

		progressCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_progress_cache_total",
			Help: "Progress cache lookups by result.",
		}, []string{"result"})

		realtimeClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lms_realtime_clients_active",
			Help: "Connected SSE and WebSocket notification clients.",
		})

		uploadsStored = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_uploads_stored_total",
			Help: "Files accepted and written to the file store, by detected type.",
		}, []string{"mime"})

		uploadsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_uploads_rejected_total",
			Help: "Files refused before storage, by reason.",
		}, []string{"reason"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			answersSubmittedTotal,
			submissionsTotal,
			notificationsFannedOut,
			notificationsPublished,
			progressCacheTotal,
			realtimeClientsActive,
			uploadsStored,
			uploadsRejected,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AnswersSubmitted counts graded quiz answers.
func AnswersSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return answersSubmittedTotal
}

// Submissions counts assignment submissions by status.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// NotificationsFannedOut counts notifications created for live classes.
func NotificationsFannedOut() prometheus.Counter {
	RegisterMetrics()
	return notificationsFannedOut
}

// NotificationsPublished counts notifications pushed to realtime subscribers.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// ProgressCache counts cache hits and misses for student progress.
func ProgressCache() *prometheus.CounterVec {
	RegisterMetrics()
	return progressCacheTotal
}

// RealtimeClientsActive tracks connected notification streams.
func RealtimeClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeClientsActive
}

// UploadsStored counts files written to the file store.
func UploadsStored() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsStored
}

// UploadsRejected counts files refused by validation or storage.
func UploadsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejected
}
