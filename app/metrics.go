package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run status labels.
const (
	statusOK     = "ok"
	statusNoData = "no_data"
	statusError  = "error"
)

var (
	analysisRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trialstats_analysis_runs_total",
		Help: "Analysis runs by outcome status",
	}, []string{"status"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trialstats_analysis_duration_seconds",
		Help:    "Wall time of one analysis run including loading",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	trialsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trialstats_trials_processed_total",
		Help: "Trial rows fed into the aggregation pipeline",
	})

	unmatchedOutcomesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trialstats_unmatched_outcomes_total",
		Help: "Ternary outcome labels that matched no category",
	})
)
