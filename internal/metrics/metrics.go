// Package metrics exposes Prometheus counters for the acquisition pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	searchesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadgen_searches_started_total",
			Help: "Total number of acquisition runs started",
		},
	)

	searchesFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_searches_finished_total",
			Help: "Total number of acquisition runs finished, by terminal state",
		},
		[]string{"state"},
	)

	rawItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadgen_raw_items_total",
			Help: "Total number of raw provider items fetched",
		},
	)

	ghostsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadgen_ghost_items_dropped_total",
			Help: "Total number of zero-review items discarded",
		},
	)

	emailsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_emails_resolved_total",
			Help: "Total number of contact emails obtained, by method",
		},
		[]string{"method"},
	)

	duplicatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_duplicates_rejected_total",
			Help: "Total number of candidates rejected by the deduplication gate",
		},
		[]string{"reason"},
	)

	sessionsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadgen_sessions_persisted_total",
			Help: "Total number of search sessions persisted",
		},
	)

	leadsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadgen_leads_persisted_total",
			Help: "Total number of unique leads persisted",
		},
	)
)

func RecordSearchStarted() {
	searchesStarted.Inc()
}

func RecordSearchFinished(state string) {
	searchesFinished.WithLabelValues(state).Inc()
}

func RecordRawItems(n int) {
	rawItems.Add(float64(n))
}

func RecordGhostDropped() {
	ghostsDropped.Inc()
}

// RecordEmailResolved counts a resolved email. method is "scrape" when the
// resolver found it, "provider" when the provider payload supplied it.
func RecordEmailResolved(method string) {
	emailsResolved.WithLabelValues(method).Inc()
}

// RecordDuplicateRejected counts a gate rejection. reason is "website" or
// "company".
func RecordDuplicateRejected(reason string) {
	duplicatesRejected.WithLabelValues(reason).Inc()
}

func RecordSessionPersisted(leadCount int) {
	sessionsPersisted.Inc()
	leadsPersisted.Add(float64(leadCount))
}

// Handler returns the Prometheus scrape handler for the serve command.
func Handler() http.Handler {
	return promhttp.Handler()
}
