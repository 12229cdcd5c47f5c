package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upload_registry_uploads_created_total",
		Help: "Upload records added",
	})

	uploadsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upload_registry_uploads_removed_total",
		Help: "Upload records removed",
	})

	updateConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upload_registry_update_conflicts_total",
		Help: "Updates abandoned after exhausting version conflict retries",
	})

	cleanupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_registry_cleanups_total",
		Help: "Cleanup attempts by outcome",
	}, []string{"outcome"})

	retentionRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upload_registry_retention_runs_total",
		Help: "Retention sweeps executed",
	})

	retentionProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_registry_retention_processed_total",
		Help: "Records handled by retention sweeps, by action",
	}, []string{"action"})

	retentionFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upload_registry_retention_failed_total",
		Help: "Records a retention sweep failed to process",
	})

	retentionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "upload_registry_retention_duration_seconds",
		Help:    "Retention sweep duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)
