// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "todo_dag"

var (
	// EdgeChecks counts dependency admission decisions by result, which is
	// "accepted" or the rejection reason.
	EdgeChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edge_checks_total",
		Help:      "Dependency admission decisions by result.",
	}, []string{"result"})

	ScheduleSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "schedule_compute_seconds",
		Help:      "Time spent computing a schedule from a snapshot.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	IntegrityViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "integrity_violations_total",
		Help:      "Snapshots that could not be scheduled because the stored graph is not a DAG.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)
