// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churnwatch_records_scored_total",
			Help: "Total number of caregiver records scored, by risk level",
		},
		[]string{"risk_level"},
	)

	RecordsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "churnwatch_records_failed_total",
			Help: "Total number of records that produced ERROR result rows",
		},
	)

	ModelFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churnwatch_model_fallbacks_total",
			Help: "Total number of per-record model failures absorbed as fallback values",
		},
		[]string{"model"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "churnwatch_stage_duration_seconds",
			Help: "Duration of pipeline stages in seconds",
		},
		[]string{"stage"},
	)

	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churnwatch_alerts_dispatched_total",
			Help: "Total number of alert dispatch attempts, by outcome",
		},
		[]string{"outcome"},
	)
)
