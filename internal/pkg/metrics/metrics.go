package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 請求
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_finder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_finder_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// 快取
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_finder_cache_requests_total",
			Help: "Cache lookups by cache name and result (hit, miss)",
		},
		[]string{"cache", "result"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recipe_finder_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_finder_cache_evictions_total",
			Help: "Total number of evicted cache entries",
		},
		[]string{"cache"},
	)

	// 食材辨識
	RecognitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_finder_recognition_duration_seconds",
			Help:    "Ingredient recognition latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
		},
		[]string{"provider", "status"},
	)

	RecognitionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_finder_recognition_fallbacks_total",
			Help: "Recognitions served by the mock recognizer after the remote provider failed",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipe_finder_recognition_queue_depth",
			Help: "Number of recognition jobs waiting or running",
		},
	)

	QueueRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_finder_recognition_queue_rejected_total",
			Help: "Recognition jobs rejected because the queue was full",
		},
	)

	// 使用者偏好
	PreferenceOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_finder_preference_operations_total",
			Help: "Preference store operations by driver, operation and status",
		},
		[]string{"driver", "operation", "status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_finder_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
