package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the Recommend HTTP handler
	RecommendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommend_latency_seconds",
		Help:    "Latency of the personalized recommendations handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of recommendation requests served
	RecommendRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommend_requests_total",
		Help: "Total number of recommend requests",
	})

	// Requests answered without the ranking model (retrieval-only scores)
	RecommendDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommend_degraded_total",
		Help: "Recommend requests served in degraded (retrieval-only) mode",
	})

	// Successful model artifact reloads
	ModelReloads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommend_model_reloads_total",
		Help: "Number of ranking model hot reloads",
	})

	// Total number of For You requests served
	ForYouRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foryou_requests_total",
		Help: "Total number of for-you requests",
	})
)

func Init() {
	prometheus.MustRegister(
		RecommendLatency,
		RecommendRequests,
		RecommendDegraded,
		ModelReloads,
		ForYouRequests,
	)
}
