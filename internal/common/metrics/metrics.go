// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "analytics_worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "analytics_worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	TableLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_table_loads_total",
			Help: "Response table load attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "question_classifications_total",
			Help: "Resolved question types by provenance",
		},
		[]string{"viz_type", "source"},
	)

	PivotRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivot_requests_total",
			Help: "Pivot computations by outcome",
		},
		[]string{"outcome"},
	)
)
