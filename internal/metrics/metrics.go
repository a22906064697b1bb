// Package metrics exposes prometheus counters for the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts webhook requests by final outcome
	// ("accepted" or the rejection reason).
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pressgate_webhook_requests_total",
			Help: "Total webhook requests by outcome",
		},
		[]string{"outcome"},
	)

	// StoreFailOpenTotal counts rate-limit / replay checks that failed
	// open because the shared store timed out or errored.
	StoreFailOpenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pressgate_store_fail_open_total",
			Help: "Store-backed checks that failed open (timeout, error or no store)",
		},
		[]string{"component", "cause"},
	)

	// ArticlesIngestedTotal counts articles handed to the ingest sink.
	ArticlesIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pressgate_articles_ingested_total",
			Help: "Total articles handed to the ingest sink",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, StoreFailOpenTotal, ArticlesIngestedTotal)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
