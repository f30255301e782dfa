package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var QueryLatencyHistogram = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "afn_query_latency_histogram",
		Help:    "c-k-AFN query latency",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 10),
	},
	[]string{"algorithm", "variant"},
)

var DistanceEvaluations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "afn_distance_evaluations_total",
		Help: "True Euclidean distance computations performed while answering queries",
	},
	[]string{"algorithm"},
)

var PageReads = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "afn_page_reads_total",
		Help: "Page-store reads performed while answering external-mode queries",
	},
	[]string{"algorithm"},
)

var IndexBuildDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "afn_index_build_duration_seconds",
		Help:    "Time to build an index",
		Buckets: prometheus.ExponentialBuckets(0.001, 10, 8),
	},
	[]string{"algorithm", "variant"},
)

var IndexSizeBytes = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "afn_index_size_bytes",
		Help: "On-disk size of a built external-mode index",
	},
	[]string{"algorithm"},
)

var QueriesServed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "afn_queries_served_total",
		Help: "Queries answered per algorithm",
	},
	[]string{"algorithm", "variant"},
)
