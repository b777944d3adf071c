package paywall_client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_wall_request_duration_seconds",
		Help:    "Latency of the signed payment wall request",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	probeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bank_probe_duration_seconds",
		Help:    "Latency of the requests sent to each bank option",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "status"})
	probeTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_probe_timeouts_total",
		Help: "The total number of bank probes that hit a timeout",
	}, []string{"provider"})
)
