package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Computation kinds.
const (
	KindSubmission = "submission"
	KindExplain    = "explain"
	KindWeights    = "weights"
	KindPrequal    = "prequal"
)

var (
	ScoringComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_scoring_computations_total",
			Help: "Total number of score computations by kind",
		},
		[]string{"kind"},
	)

	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tally_scoring_duration_seconds",
			Help:    "Duration of score computations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"kind"},
	)

	ScoreCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_score_cache_total",
			Help: "Submission score cache lookups by result",
		},
		[]string{"result"},
	)

	RubricWeightWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tally_rubric_weight_warnings_total",
			Help: "Rubrics whose weights fall outside the target tolerance",
		},
	)

	PrequalTiers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_prequal_tier_total",
			Help: "Final prequalification results by tier",
		},
		[]string{"tier"},
	)

	RescoreSweeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_rescore_submissions_total",
			Help: "Submissions recomputed by the background rescorer, by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveComputation counts one computation and records how long it took.
func ObserveComputation(kind string, start time.Time) {
	ScoringComputations.WithLabelValues(kind).Inc()
	ScoringDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func CacheHit()  { ScoreCache.WithLabelValues("hit").Inc() }
func CacheMiss() { ScoreCache.WithLabelValues("miss").Inc() }
