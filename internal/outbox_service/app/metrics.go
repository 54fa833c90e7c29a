package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesEnqueuedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outbox",
			Name:      "messages_enqueued_total",
			Help:      "Total number of enqueue calls by outcome.",
		},
		[]string{"outcome"}, // "enqueued", "duplicate", "suppressed", "conflict"
	)

	bundlesCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "outbox",
			Name:      "bundles_created_total",
			Help:      "Total number of bundles created.",
		},
	)

	bundlesSweptCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "outbox",
			Name:      "bundles_swept_total",
			Help:      "Total number of over-age bundles closed by the sweeper.",
		},
	)

	peekDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "outbox",
			Name:      "peek_duration_seconds",
			Help:      "Duration of peek calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"}, // "rendered", "repeat", "empty"
	)
)
