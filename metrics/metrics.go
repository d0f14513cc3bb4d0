// Package metrics contains the Prometheus collectors exposed by the number
// service at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NumbersAllocatedTotal tracks the sequence numbers handed out.
var NumbersAllocatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scriptomate_numbers_allocated_total",
		Help: "Total sequence numbers allocated",
	},
	[]string{"mode"},
)

// AllocationConflictsTotal tracks optimistic concurrency conflicts that caused
// an allocation to be retried.
var AllocationConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "scriptomate_allocation_conflicts_total",
		Help: "Total counter write conflicts retried",
	},
)

// AllocationErrorsTotal tracks failed allocations.
var AllocationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scriptomate_allocation_errors_total",
		Help: "Total failed sequence number allocations",
	},
	[]string{"mode"},
)

// ScriptsExecutedTotal tracks executed migration scripts by result.
var ScriptsExecutedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scriptomate_scripts_executed_total",
		Help: "Total migration scripts executed",
	},
	[]string{"result"},
)

// ScriptDuration tracks the time spent executing a single script.
var ScriptDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "scriptomate_script_duration_seconds",
		Help:    "Migration script execution time",
		Buckets: prometheus.DefBuckets,
	},
)

// HTTPRequestsTotal tracks requests served by the number service.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scriptomate_http_requests_total",
		Help: "Total HTTP requests served",
	},
	[]string{"method", "code"},
)
