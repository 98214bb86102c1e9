// Package metrics defines and registers all custom Prometheus metrics
// for the auth agent. It is the single source of truth for metric
// names, labels, and help strings; metrics register with the default
// registry at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authagent"

// AuthOperationsTotal counts session store operations.
// Labels:
//   - op: "sign_up", "sign_in", "sign_out", "check_auth", "update_role"
//   - result: "success" or "error"
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of session store operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// GateDecisionsTotal counts access gate resolutions.
// Label:
//   - state: "authenticated" or "unauthenticated"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of access gate decisions on protected routes.",
	},
	[]string{"state"},
)

// OperationDuration measures how long a session store operation takes,
// including all remote round trips.
// Label:
//   - op: same values as AuthOperationsTotal
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of session store operations end-to-end.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)
