package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and deletion Prometheus metrics.
var (
	SearchMatchesReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "imagedex",
			Name:      "search_matches_returned",
			Help:      "Number of matches returned per search after deduplication",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	DeletionDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagedex",
			Name:      "deletion_documents_total",
			Help:      "Documents processed by entity deletion sweeps",
		},
		[]string{"outcome"}, // "deleted" / "failed"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and deletion metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchMatchesReturned)
	prometheus.MustRegister(DeletionDocumentsTotal)
	searchMetricsRegistered = true
}
