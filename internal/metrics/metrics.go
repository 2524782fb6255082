// Package metrics exposes Prometheus collectors for the server, the search
// session, and the schedule pollers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SearchIndexRebuildsTotal counts index installs per slot, whatever
	// the fetch outcome.
	SearchIndexRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dagit",
			Name:      "search_index_rebuilds_total",
			Help:      "Number of search index builds installed, by slot",
		},
		[]string{"slot"},
	)

	// SearchIndexRecords tracks the current record count per slot.
	SearchIndexRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dagit",
			Name:      "search_index_records",
			Help:      "Records currently held in each search index slot",
		},
		[]string{"slot"},
	)

	// SearchQueriesTotal counts search executions against the session.
	SearchQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dagit",
			Name:      "search_queries_total",
			Help:      "Total number of search queries served",
		},
	)

	// UpstreamRequestDuration observes GraphQL round-trip latency per
	// operation.
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dagit",
			Name:      "upstream_request_duration_seconds",
			Help:      "GraphQL upstream request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// UpstreamRequestsTotal counts GraphQL requests by operation and
	// outcome ("ok" or "error").
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dagit",
			Name:      "upstream_requests_total",
			Help:      "Total number of GraphQL upstream requests",
		},
		[]string{"operation", "outcome"},
	)

	// SchedulePollsTotal counts schedule row polls by outcome ("ok",
	// "not_found", or "error").
	SchedulePollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dagit",
			Name:      "schedule_polls_total",
			Help:      "Total number of schedule row polls",
		},
		[]string{"outcome"},
	)

	// ScheduleWatchersActive tracks the number of live row pollers.
	ScheduleWatchersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dagit",
			Name:      "schedule_watchers_active",
			Help:      "Schedule row pollers currently running",
		},
	)
)

func init() {
	prometheus.MustRegister(SearchIndexRebuildsTotal)
	prometheus.MustRegister(SearchIndexRecords)
	prometheus.MustRegister(SearchQueriesTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(SchedulePollsTotal)
	prometheus.MustRegister(ScheduleWatchersActive)
}
