package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationsTotal counts finished generation jobs by capability and outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiction_generations_total",
			Help: "Total number of generation jobs processed",
		},
		[]string{"capability", "status"},
	)

	// GenerationDuration tracks wall-clock generation time in seconds.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fiction_generation_duration_seconds",
			Help:    "Duration of generation jobs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
		},
		[]string{"capability"},
	)

	// WorkersActive tracks the number of currently busy pool workers.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fiction_workers_active",
			Help: "Number of currently active worker goroutines",
		},
	)

	// ProviderFallbacks counts backend calls that failed over to the next candidate.
	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiction_provider_fallbacks_total",
			Help: "Total number of provider calls that fell back to another backend",
		},
		[]string{"capability", "backend"},
	)

	// StaleDispatches counts queue messages dropped because a reset or cancel superseded them.
	StaleDispatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fiction_stale_dispatches_total",
			Help: "Total number of dispatches dropped as superseded",
		},
	)

	// JobsPublished counts dispatch messages published to the queue.
	JobsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fiction_jobs_published_total",
			Help: "Total number of job dispatches published",
		},
	)
)
