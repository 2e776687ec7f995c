// Package metrics provides Prometheus metrics for monitoring refresh jobs
// and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colligo_refreshes_started_total",
			Help: "Total number of refresh jobs started",
		},
		[]string{"collection"},
	)
	RefreshesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colligo_refreshes_completed_total",
			Help: "Total number of refresh jobs completed successfully",
		},
		[]string{"collection"},
	)
	RefreshesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colligo_refreshes_failed_total",
			Help: "Total number of refresh jobs that failed",
		},
		[]string{"collection"},
	)
	RecordsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colligo_records_saved_total",
			Help: "Total number of records upserted into the document store",
		},
		[]string{"collection"},
	)
	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "colligo_refresh_duration_seconds",
			Help:    "Refresh job duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"collection", "status"},
	)
	TasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "colligo_tasks_active",
			Help: "Current number of pending or running tasks",
		},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colligo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func RecordRefreshStarted(collection string) {
	RefreshesStarted.WithLabelValues(collection).Inc()
}

func RecordRefreshCompleted(collection string, duration time.Duration) {
	RefreshesCompleted.WithLabelValues(collection).Inc()
	RefreshDuration.WithLabelValues(collection, "success").Observe(duration.Seconds())
}

func RecordRefreshFailed(collection string, duration time.Duration) {
	RefreshesFailed.WithLabelValues(collection).Inc()
	RefreshDuration.WithLabelValues(collection, "failed").Observe(duration.Seconds())
}

func RecordRecordsSaved(collection string, count int) {
	RecordsSaved.WithLabelValues(collection).Add(float64(count))
}

func UpdateActiveTasks(count int) {
	TasksActive.Set(float64(count))
}
