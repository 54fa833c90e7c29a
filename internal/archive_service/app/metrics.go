package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveAppendedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archive",
			Name:      "messages_appended_total",
			Help:      "Total number of messages appended to the archive.",
		},
		[]string{"partition", "archive_type"},
	)

	archiveSearchDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "archive",
			Name:      "search_duration_seconds",
			Help:      "Duration of archive search queries.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"partition"},
	)
)
