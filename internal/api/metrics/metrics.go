// Package metrics defines and registers the custom Prometheus metrics of the
// account gate. It is the single source of truth for metric names, labels,
// and help strings; the generic per-route HTTP metrics come from the
// echoprometheus middleware and are not declared here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "account_gate"

// LoginDenialsTotal counts logins blocked by the deleted-account check.
// Label:
//   - phase: "pre" (blocked by submitted email, upstream never called) or
//     "post" (blocked after upstream authenticated the account)
var LoginDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_denials_total",
		Help:      "Total number of logins denied because the account is tombstoned.",
	},
	[]string{"phase"},
)

// DeletionsTotal counts completed account-deletion requests.
// Label:
//   - result: "created" (new tombstone) or "already_deleted" (idempotent hit)
var DeletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deletions_total",
		Help:      "Total number of successful account-deletion requests, by outcome.",
	},
	[]string{"result"},
)

// TombstonesCreatedTotal counts tombstone rows durably written.
var TombstonesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tombstones_created_total",
		Help:      "Total number of tombstone records written to the store.",
	},
)

// UpstreamErrorsTotal counts transport-level failures against upstream.
// Label:
//   - endpoint: "forward", "current_user", "logout", or "user_delete"
var UpstreamErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_errors_total",
		Help:      "Total number of upstream requests that failed at the transport level.",
	},
	[]string{"endpoint"},
)

// UpstreamRequestDuration measures upstream round-trip latency.
// Label:
//   - endpoint: same values as UpstreamErrorsTotal
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests relayed to or initiated against upstream.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)

// CleanupFailuresTotal counts best-effort upstream cleanup calls that failed
// and were swallowed.
// Label:
//   - step: "user_delete" or "logout"
var CleanupFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_failures_total",
		Help:      "Total number of swallowed upstream cleanup failures after a deletion.",
	},
	[]string{"step"},
)
