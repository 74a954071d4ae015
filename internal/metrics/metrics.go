// Package metrics exposes Prometheus instrumentation for the
// dashboard engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SamplesIngested counts live samples accepted into the store,
	// labeled by feed source.
	SamplesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "samples_ingested_total",
		Help:      "Live samples ingested into the sample store.",
	}, []string{"source"})

	// FeedErrors counts failed feed polls.
	FeedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "feed_errors_total",
		Help:      "Failed live or historical feed requests.",
	}, []string{"source"})

	// StaleResponsesDropped counts historical responses discarded
	// because a newer fetch superseded them.
	StaleResponsesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "stale_responses_dropped_total",
		Help:      "Historical fetch responses discarded as superseded.",
	})

	// SavesTotal counts dashboard persistence attempts by outcome.
	SavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "saves_total",
		Help:      "Dashboard persistence attempts.",
	}, []string{"outcome"})

	// TrackedTags is the number of tags with a current sample.
	TrackedTags = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Name:      "tracked_tags",
		Help:      "Tags with at least one live sample.",
	})

	// ActiveWidgets is the number of widgets on the active dashboard.
	ActiveWidgets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Name:      "active_widgets",
		Help:      "Widgets on the active dashboard.",
	})
)

// RecordSave tallies a persistence attempt.
func RecordSave(err error) {
	if err != nil {
		SavesTotal.WithLabelValues("error").Inc()
		return
	}
	SavesTotal.WithLabelValues("ok").Inc()
}
