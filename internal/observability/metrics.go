// Package observability provides Prometheus collectors and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedWrites counts feed write attempts by outcome (ok, failed).
	FeedWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orma_feed_writes_total",
		Help: "Total number of feed writes by outcome",
	}, []string{"outcome"})

	// FeedWriteRetries counts retried feed write attempts after a transient error.
	FeedWriteRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orma_feed_write_retries_total",
		Help: "Total number of feed write retries after transient database errors",
	})

	// FeedWriteFailures counts feed writes that gave up, by reason (transient, permanent).
	FeedWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orma_feed_write_failures_total",
		Help: "Total number of feed writes that failed",
	}, []string{"reason"})

	// Uploads counts guest uploads by result.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orma_uploads_total",
		Help: "Total number of photo uploads by result",
	}, []string{"result"})

	// UploadBytes records accepted upload sizes.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orma_upload_bytes",
		Help:    "Size of accepted uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(64*1024, 2, 8),
	})

	// ProcessingCallbacks counts worker callbacks by resulting post status.
	ProcessingCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orma_processing_callbacks_total",
		Help: "Total number of processing callbacks by status",
	}, []string{"status"})

	// DependencyLatency records latency of calls to external collaborators.
	DependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orma_dependency_latency_seconds",
		Help:    "Latency of external dependency calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"dependency", "operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orma_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LiveConnections is the gauge of open live feed sockets.
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orma_live_connections",
		Help: "Number of open live feed WebSocket connections",
	})

	// LiveMessagesDropped counts live feed messages dropped by reason (full, closed).
	LiveMessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orma_live_messages_dropped_total",
		Help: "Total number of live feed messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackDependency returns a function that records an external call's latency.
func TrackDependency(dependency, operation string) func() {
	start := time.Now()
	return func() {
		DependencyLatency.WithLabelValues(dependency, operation).Observe(time.Since(start).Seconds())
	}
}
