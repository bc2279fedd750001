// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recording_sync"

var (
	StrategyOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_outcomes_total",
		Help:      "Lookup strategy attempts by strategy and outcome (match, miss, error).",
	}, []string{"strategy", "outcome"})

	MeetingsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "meetings_reconciled_total",
		Help:      "Meetings processed by the reconciliation pipeline by outcome.",
	}, []string{"outcome"})

	TaskTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_transitions_total",
		Help:      "Task state transitions by job type and target state.",
	}, []string{"job_type", "state"})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Wall time of a full batch reconciliation pass.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	LookupCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_calls_total",
		Help:      "External lookup calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	LookupLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lookup_latency_seconds",
		Help:      "External lookup latency by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)
