package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlansGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentormuni_plans_generated_total",
			Help: "Total number of interview plans returned, by source (llm or fallback)",
		},
		[]string{"source"},
	)

	PlanItemsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentormuni_plan_items_discarded_total",
			Help: "Malformed plan items dropped while parsing model output",
		},
	)

	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentormuni_evaluations_total",
			Help: "Total number of readiness evaluations, by readiness label",
		},
		[]string{"label"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentormuni_llm_call_duration_seconds",
			Help:    "Duration of guarded LLM calls including retries",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"operation", "outcome"},
	)

	JournalWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentormuni_journal_writes_total",
			Help: "Journal appends by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentormuni_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
		[]string{"route"},
	)
)
