package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stakegate_bets_total",
		Help: "The total number of simulated bets by terminal status",
	}, []string{"status", "platform"})

	BatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stakegate_batches_total",
		Help: "The total number of submitted bet batches",
	}, []string{"outcome"})

	DistributionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stakegate_distributions_total",
		Help: "The total number of stake distribution requests",
	}, []string{"mode"})

	DistributionShortfall = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakegate_distribution_shortfall_sum",
		Help: "Cumulative undistributed stake due to capacity limits",
	})

	ResolutionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stakegate_bet_resolution_seconds",
		Help:    "Simulated time from submission to terminal state",
		Buckets: prometheus.DefBuckets,
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stakegate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
