// Package metrics exposes delivery counters for monitoring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent counts user messages confirmed delivered on first attempt.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazachat_messages_sent_total",
		Help: "Messages delivered to the conversation service on submit.",
	})

	// MessagesFailed counts submits that settled as failed.
	MessagesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazachat_messages_failed_total",
		Help: "Submits that failed and were queued for retry.",
	})

	// MessagesQueued counts envelopes persisted to the durable queue.
	MessagesQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazachat_messages_queued_total",
		Help: "Envelopes persisted to the unsent queue.",
	})

	// DrainRuns counts drain executions (coalesced calls excluded).
	DrainRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazachat_drain_runs_total",
		Help: "Queue drain executions.",
	})

	// DrainDelivered counts envelopes successfully resent during drains.
	DrainDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazachat_drain_delivered_total",
		Help: "Envelopes delivered during queue drains.",
	})

	// DrainDropped counts envelopes abandoned after exhausting attempts.
	DrainDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazachat_drain_dropped_total",
		Help: "Envelopes dropped after exceeding the drain attempt cap.",
	})
)
