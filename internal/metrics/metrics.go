// Package metrics provides Prometheus metrics for the FlexMon alert engine.
// Everything the engine silently decides (skips, suppressions, lease misses)
// is surfaced here so operators can observe it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "flexmon"
)

// Pass metrics track the scheduler loop.
var (
	// PassesTotal counts completed evaluation passes.
	PassesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_passes_total",
			Help:      "Total number of completed evaluation passes",
		},
	)

	// PassesSkippedTotal counts passes skipped because another instance
	// holds the engine lease.
	PassesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_passes_skipped_total",
			Help:      "Total number of passes skipped while another instance held the lease",
		},
	)

	// PassDuration measures wall time of a full evaluation pass.
	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_pass_duration_seconds",
			Help:      "Duration of a full evaluation pass in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Rule metrics track per-rule evaluation outcomes.
var (
	// RulesEvaluatedTotal counts rules evaluated, labeled by rule type.
	RulesEvaluatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_evaluated_total",
			Help:      "Total number of rule evaluations",
		},
		[]string{"type"},
	)

	// RulesSkippedTotal counts rules skipped without evaluation, labeled by
	// reason: unknown_type, unsupported_metric, missing_config, store_error,
	// search_error.
	RulesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_skipped_total",
			Help:      "Total number of rules skipped during evaluation",
		},
		[]string{"type", "reason"},
	)

	// CandidatesTotal counts detection candidates produced by evaluators.
	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Total number of candidate firings produced by evaluators",
		},
		[]string{"type"},
	)
)

// Alert metrics track the dedup gate and writer.
var (
	// AlertsFiredTotal counts alerts persisted by the engine.
	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_fired_total",
			Help:      "Total number of alerts written to the store",
		},
		[]string{"type", "severity"},
	)

	// AlertsSuppressedTotal counts candidates dropped by the dedup gate.
	AlertsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_suppressed_total",
			Help:      "Total number of candidates suppressed inside the dedup window",
		},
		[]string{"type"},
	)

	// AlertsPublishedTotal counts fired alerts handed off to the queue.
	AlertsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Total number of fired alerts published to the message queue",
		},
		[]string{"status"}, // status: success, failure
	)
)

// Storage metrics track database, search, and cache operations.
var (
	// StoreOperationLatency measures latency of store operations.
	StoreOperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_latency_seconds",
			Help:      "Latency of store operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"store", "operation"}, // store: postgres, elasticsearch, redis
	)

	// StoreOperationsTotal counts store operations.
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"store", "operation", "status"}, // status: success, failure
	)
)
