// Package metrics registers process-level counters on the default
// prometheus registry. The engine has no transport of its own; an
// embedding process decides how to expose the registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoutingDecisions counts routing decisions by strategy and backend.
	RoutingDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zroute",
		Name:      "routing_decisions_total",
		Help:      "Routing decisions by strategy and selected backend.",
	}, []string{"strategy", "backend"})

	// RoutingFailures counts routing calls that produced no decision.
	RoutingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zroute",
		Name:      "routing_failures_total",
		Help:      "Routing calls that failed to select a backend.",
	})

	// StoreFailures counts store calls that failed after a decision.
	StoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zroute",
		Name:      "routing_store_failures_total",
		Help:      "Backend store calls that failed after routing.",
	})

	// MigrationTasks counts migration task terminal outcomes.
	MigrationTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zroute",
		Name:      "migration_tasks_total",
		Help:      "Migration tasks by terminal status.",
	}, []string{"status"})

	// MigrationRetries counts requeued migration attempts.
	MigrationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zroute",
		Name:      "migration_retries_total",
		Help:      "Migration task attempts that were requeued for retry.",
	})
)
