// Package metrics defines and registers the custom Prometheus metrics of the
// workflow service. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry on
// package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workflow"

// ── Submission metrics ────────────────────────────────────────────────────────

// SubmissionsTotal counts checklist objective and deliverable submissions.
// Labels:
//   - type: "objective", "deliverable" or "deliverable_edit"
//   - result: "accepted", "invalid", "forbidden", "conflict" or "error"
var SubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of submissions, by type and result.",
	},
	[]string{"type", "result"},
)

// ReviewsTotal counts reviewer decisions that were persisted.
// Labels:
//   - type: "objective" or "deliverable"
//   - decision: "APPROVED" or "REJECTED"
var ReviewsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_total",
		Help:      "Total number of reviews recorded, by type and decision.",
	},
	[]string{"type", "decision"},
)

// HydrationSkippedTotal counts projects left out of a per-user view because
// their stages could not be loaded.
var HydrationSkippedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hydration_skipped_total",
		Help:      "Total number of projects skipped after a stage hydration failure.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Workflow event metrics ────────────────────────────────────────────────────

// WorkflowEventsErrorsTotal counts workflow events that were not delivered.
// Label:
//   - reason: "queue_full" or "handler"
var WorkflowEventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of workflow events that failed or were dropped.",
	},
	[]string{"reason"},
)

// WorkflowQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var WorkflowQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of workflow events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// WorkflowEventDuration measures notification fan-out per event.
// Label:
//   - kind: the workflow event kind, or "error" on failure
var WorkflowEventDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Duration of workflow event handling from dequeue to notification.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)
