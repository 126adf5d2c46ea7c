// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the progression engine.
var (
	// Counters.
	ChallengesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenges_completed_total",
			Help: "Total number of challenge completions",
		},
		[]string{"category"},
	)

	ChallengeCompletionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_completion_failures_total",
			Help: "Total number of rejected challenge completions",
		},
		[]string{"reason"},
	)

	ChallengesUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenges_unlocked_total",
			Help: "Total number of challenges unlocked by propagation",
		},
		[]string{"mode"}, // successor, level
	)

	StatusesInitializedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_statuses_initialized_total",
			Help: "Total number of users whose challenge statuses were initialized",
		},
	)

	SkillTestsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skill_tests_submitted_total",
			Help: "Total number of skill test submissions",
		},
		[]string{"position", "status"},
	)

	BadgesAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of badges awarded",
		},
	)

	ConcurrencyConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concurrency_conflicts_total",
			Help: "Total number of operations rejected by a guarded update or a held user lock",
		},
		[]string{"operation", "kind"}, // kind: modification, busy
	)

	VectorCacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skill_vector_cache_requests_total",
			Help: "Skill vector cache lookups",
		},
		[]string{"result"}, // hit, miss, error, stale
	)

	// Histograms.
	SkillTestRating = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skill_test_rating",
			Help:    "Normalized skill test ratings",
			Buckets: prometheus.LinearBuckets(50, 7, 8), // 50 to 99
		},
		[]string{"test"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "progression_operation_duration_seconds",
			Help:    "Duration of engine write operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)
)

// RecordChallengeCompleted increments the completion counter of a category.
func RecordChallengeCompleted(category string) {
	ChallengesCompletedTotal.WithLabelValues(category).Inc()
}

// RecordCompletionFailure increments the completion failure counter.
func RecordCompletionFailure(reason string) {
	ChallengeCompletionFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordUnlocks adds n unlocks of the given propagation mode.
func RecordUnlocks(mode string, n int) {
	if n <= 0 {
		return
	}
	ChallengesUnlockedTotal.WithLabelValues(mode).Add(float64(n))
}

// RecordStatusesInitialized increments the initialization counter.
func RecordStatusesInitialized() {
	StatusesInitializedTotal.Inc()
}

// RecordSkillTestSubmitted increments the submission counter.
func RecordSkillTestSubmitted(position, status string) {
	SkillTestsSubmittedTotal.WithLabelValues(position, status).Inc()
}

// RecordSkillTestRating observes a rating of a test.
func RecordSkillTestRating(test string, rating float64) {
	SkillTestRating.WithLabelValues(test).Observe(rating)
}

// RecordBadgeAwarded increments the badge counter.
func RecordBadgeAwarded() {
	BadgesAwardedTotal.Inc()
}

// RecordConflict increments the conflict counter of an operation.
func RecordConflict(operation, kind string) {
	ConcurrencyConflictsTotal.WithLabelValues(operation, kind).Inc()
}

// RecordVectorCacheResult increments the cache lookup counter.
func RecordVectorCacheResult(result string) {
	VectorCacheRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveOperation records the duration of an operation started at start.
func ObserveOperation(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
