// Package metrics provides Prometheus metrics for voicecart
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interpretation metrics
	CommandsInterpreted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecart_commands_interpreted_total",
			Help: "Total number of transcripts interpreted into commands",
		},
		[]string{"language", "action"},
	)

	// Session metrics
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecart_sessions_total",
			Help: "Total number of listening sessions by outcome",
		},
		[]string{"transport", "outcome"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicecart_sessions_active",
			Help: "Number of listening sessions in progress",
		},
	)

	// Storefront metrics
	StorefrontRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecart_storefront_requests_total",
			Help: "Total number of storefront API calls",
		},
		[]string{"operation", "status"},
	)

	StorefrontDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicecart_storefront_request_duration_seconds",
			Help:    "Storefront API call latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecart_product_cache_lookups_total",
			Help: "Product cache lookups by result",
		},
		[]string{"result"},
	)

	// Dispatch metrics
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicecart_dispatch_duration_seconds",
			Help:    "Time taken to process a dispatch request end to end",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"input"},
	)
)
