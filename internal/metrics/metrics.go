package metrics

import (
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path", "status"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "bucket", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Duration of storage operations in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	StorageBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_bytes_total",
			Help: "Total bytes transferred to/from storage",
		},
		[]string{"operation"},
	)

	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaswap_jobs_processed_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"engine", "outcome"},
	)

	JobsProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaswap_job_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"engine", "stage"},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaswap_jobs_in_flight",
			Help: "Number of pipeline runs currently executing",
		},
	)

	PreviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaswap_previews_total",
			Help: "Preview generation attempts by status",
		},
		[]string{"status"},
	)

	StagedFilesCleanedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaswap_staged_files_cleaned_total",
			Help: "Staged files handled during cleanup by result",
		},
		[]string{"result"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaswap_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "environment", "service"},
	)

	AppUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_up",
			Help: "Application is up and running",
		},
	)
)

func NormalizePath(path string) string {
	return uuidRegex.ReplaceAllString(path, ":id")
}

func RecordJobProcessed(engine, outcome string, durationSeconds float64) {
	JobsProcessedTotal.WithLabelValues(engine, outcome).Inc()
	JobsProcessingDuration.WithLabelValues(engine, "total").Observe(durationSeconds)
}

func RecordJobStage(engine, stage string, durationSeconds float64) {
	JobsProcessingDuration.WithLabelValues(engine, stage).Observe(durationSeconds)
}

func RecordPreview(ok bool) {
	status := "success"
	if !ok {
		status = "skipped"
	}
	PreviewsTotal.WithLabelValues(status).Inc()
}

func RecordCleanup(removed, missing, failed int) {
	StagedFilesCleanedTotal.WithLabelValues("removed").Add(float64(removed))
	StagedFilesCleanedTotal.WithLabelValues("missing").Add(float64(missing))
	StagedFilesCleanedTotal.WithLabelValues("failed").Add(float64(failed))
}

func RecordRateLimitHit() {
	RateLimitHits.Inc()
}

func SetAppInfo(version, environment, service string) {
	AppInfo.WithLabelValues(version, environment, service).Set(1)
	AppUp.Set(1)
}
