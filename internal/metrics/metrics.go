package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus instruments. Registered once on the
// default registry and exposed at /metrics.
type Metrics struct {
	PipelineRuns      prometheus.Counter
	PipelineErrors    prometheus.Counter
	PipelineDuration  prometheus.Histogram
	EventsMerged      prometheus.Counter
	LastProcessedID   prometheus.Gauge
	ProjectsTracked   prometheus.Gauge
	ReconcileFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		PipelineRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Completed ingestion pipeline runs.",
		}),
		PipelineErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_run_errors_total",
			Help: "Pipeline runs aborted by a primary fetch or store failure.",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Wall time of a full merge/reconstruct/aggregate run.",
			Buckets: prometheus.DefBuckets,
		}),
		EventsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "events_merged_total",
			Help: "New status events merged into the event store.",
		}),
		LastProcessedID: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "last_processed_event_id",
			Help: "High-water mark of the ingestion cursor.",
		}),
		ProjectsTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "projects_tracked",
			Help: "Projects present in the latest aggregation pass.",
		}),
		ReconcileFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reconcile_job_errors_total",
			Help: "Per-job failures during schedule reconciliation.",
		}),
	}
}
