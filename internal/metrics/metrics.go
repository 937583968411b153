// Package metrics holds the Prometheus collectors for arctree.
//
// Collectors register on the default registry at init; Handler exposes them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshuapare/arctree/pkg/types"
)

var (
	// catalogRequests counts catalog calls by operation and result.
	// Labels: op = root|children|search|resolve; result = ok|network|not_found|malformed|state
	catalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arctree_catalog_requests_total",
		Help: "Total catalog requests by operation and result",
	}, []string{"op", "result"})

	catalogDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arctree_catalog_request_duration_seconds",
		Help:    "Catalog request latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op"})

	catalogShared = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arctree_catalog_shared_requests_total",
		Help: "Catalog GETs answered by an identical request already in flight",
	}, []string{"op"})

	// staleDropped counts responses discarded because a newer request superseded them.
	// Labels: kind = search|path|children|root
	staleDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arctree_stale_responses_total",
		Help: "Responses dropped because a newer request superseded them",
	}, []string{"kind"})

	pagesBuffered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arctree_child_pages_buffered_total",
		Help: "Children pages that arrived ahead of an earlier page and were held",
	})
)

// ObserveRequest records the outcome and latency of one catalog call.
func ObserveRequest(op string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "other"
		if kind, ok := types.KindOf(err); ok {
			result = kind.String()
		}
	}
	catalogRequests.WithLabelValues(op, result).Inc()
	catalogDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SharedRequest records a GET that piggybacked on an in-flight twin.
func SharedRequest(op string) { catalogShared.WithLabelValues(op).Inc() }

// StaleDropped records a superseded response.
func StaleDropped(kind string) { staleDropped.WithLabelValues(kind).Inc() }

// PageBuffered records a children page held for ordering.
func PageBuffered() { pagesBuffered.Inc() }

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
