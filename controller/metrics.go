package controller

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sapslaj/do-dyndns/pkg/metrics"
)

const MetricSubsystem = "controller"

var (
	MetricPasses = metrics.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: MetricSubsystem,
			Name:      "passes",
		},
		[]string{"status"},
	)
	MetricOutcomes = metrics.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: MetricSubsystem,
			Name:      "outcomes",
		},
		[]string{"family", "outcome"},
	)
	MetricLastRunTimestamp = metrics.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: MetricSubsystem,
			Name:      "last_run_timestamp",
		},
	)
	MetricLastRunDurationSeconds = metrics.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: MetricSubsystem,
			Name:      "last_run_duration_seconds",
		},
	)
	MetricRunDurationSeconds = metrics.NewHistogram(
		prometheus.HistogramOpts{
			Subsystem: MetricSubsystem,
			Name:      "run_duration_seconds",
		},
	)
)
