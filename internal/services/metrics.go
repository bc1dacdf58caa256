package services

import "github.com/prometheus/client_golang/prometheus"

var (
	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srs_reviews_total",
			Help: "Review submissions applied, by mode and grade.",
		},
		[]string{"mode", "grade"},
	)

	dedupedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "srs_review_duplicates_total",
			Help: "Submissions answered from an identical in-flight or recorded submission.",
		},
	)

	conflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srs_write_conflicts_total",
			Help: "Optimistic write conflicts, by outcome (retried or exhausted).",
		},
		[]string{"outcome"},
	)

	mergesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srs_merges_total",
			Help: "Remote word states applied during sync, by outcome.",
		},
		[]string{"outcome"},
	)

	mergeAmbiguityTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "srs_merge_ambiguity_total",
			Help: "Merges where replicas from different devices had equal timestamps.",
		},
	)
)

func init() {
	prometheus.MustRegister(reviewsTotal, dedupedTotal, conflictsTotal, mergesTotal, mergeAmbiguityTotal)
}
