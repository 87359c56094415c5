// Package metrics defines the Prometheus metrics of the propadmin client and
// console. All metrics are registered on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "propadmin"

// ── Remote API ───────────────────────────────────────────────────────────────

// APIRequestsTotal counts requests sent to the remote API.
// Labels:
//   - method: HTTP method
//   - code: response status code, or "error" when no response arrived
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Requests sent to the remote API, by method and status code.",
	},
	[]string{"method", "code"},
)

// APIRequestDuration measures round-trip time to the remote API.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Round-trip duration of remote API requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Session ──────────────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state changes.
// Labels:
//   - to: the new state ("authenticated", "unauthenticated", "restoring")
//   - reason: what caused it ("restore", "login", "register", "logout", "expired")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Session state transitions, by target state and reason.",
	},
	[]string{"to", "reason"},
)

// ForcedLogoutsTotal counts session teardowns caused by a 401 from the API.
var ForcedLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "forced_logouts_total",
		Help:      "Sessions torn down because the API answered 401.",
	},
)
