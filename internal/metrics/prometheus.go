package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the pool worker

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supercontest_api_calls_total",
			Help: "Total number of Odds API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supercontest_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Batch metrics
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supercontest_batches_total",
			Help: "Total number of sync/lock/grade batches",
		},
		[]string{"type", "status"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supercontest_batch_duration_seconds",
			Help:    "Duration of batch operations in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"type"},
	)

	GamesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_games_created_total",
			Help: "Games created from odds events",
		},
	)

	GamesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_games_updated_total",
			Help: "Games updated from odds events",
		},
	)

	GamesSkippedLocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_games_skipped_locked_total",
			Help: "Odds events skipped because the game's spread was locked",
		},
	)

	ScoresUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_scores_updated_total",
			Help: "Games whose final scores changed from score events",
		},
	)

	ScoresMissingGame = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_scores_missing_game_total",
			Help: "Score events matching no known game",
		},
	)

	GamesLocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_games_locked_total",
			Help: "Games transitioned to locked",
		},
	)

	GamesFinalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_games_finalized_total",
			Help: "Games graded against the spread",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supercontest_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supercontest_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "supercontest_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "supercontest_last_successful_sync_timestamp",
			Help: "Timestamp of last successful sync batch",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordBatch records a batch operation
func RecordBatch(batchType, status string, duration float64) {
	BatchesTotal.WithLabelValues(batchType, status).Inc()
	BatchDuration.WithLabelValues(batchType).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordLineImport records the counters of one lines batch
func RecordLineImport(created, updated, skippedLocked int) {
	GamesCreated.Add(float64(created))
	GamesUpdated.Add(float64(updated))
	GamesSkippedLocked.Add(float64(skippedLocked))
}

// RecordScoreImport records the counters of one scores batch
func RecordScoreImport(updated, missingGame int) {
	ScoresUpdated.Add(float64(updated))
	ScoresMissingGame.Add(float64(missingGame))
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
