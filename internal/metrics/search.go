package metrics

import "github.com/prometheus/client_golang/prometheus"

// Fallback stages, the label values of SearchFallbackTotal.
const (
	FallbackDenseFilterDrop  = "dense_filter_drop"
	FallbackSparsePostFilter = "sparse_post_filter"
	FallbackTopLevel         = "top_level"
)

// Retrieval Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusedex",
			Name:      "search_requests_total",
			Help:      "Total number of hybrid search requests",
		},
		[]string{"status"},
	)

	// SearchFallbackTotal counts degraded fallbacks, the observability signal
	// that lets operators detect filters being silently discarded.
	SearchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusedex",
			Name:      "search_fallback_total",
			Help:      "Degraded fallbacks taken during hybrid search, by stage",
		},
		[]string{"stage"},
	)

	SearchBranchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fusedex",
			Name:      "search_branch_duration_seconds",
			Help:      "Per-branch retrieval duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"branch"}, // "dense" / "sparse"
	)

	IndexRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusedex",
			Name:      "index_rebuilds_total",
			Help:      "Corpus index rebuilds",
		},
		[]string{"status"},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fusedex",
			Name:      "index_documents",
			Help:      "Documents in the current corpus snapshot",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchFallbackTotal)
	prometheus.MustRegister(SearchBranchDuration)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(IndexDocuments)
	searchMetricsRegistered = true
}
