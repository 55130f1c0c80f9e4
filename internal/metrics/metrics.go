// Package metrics defines the Prometheus instrumentation for the CSB
// processing pipeline, grounded on the pack's observability.Metrics
// dual-constructor shape.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters, histograms, and gauges for one pipeline run.
type Metrics struct {
	FilesRead      prometheus.Counter
	RowsIngested   prometheus.Counter
	RowsDropped    prometheus.Counter
	RowsCleaned    prometheus.Counter
	ParseErrors    *prometheus.CounterVec // labels: format

	TideZonesBuilt prometheus.Gauge
	UnzonedRows    prometheus.Counter

	TideAPIRequests    *prometheus.CounterVec   // labels: method, outcome={success,error}
	TideAPICacheHits   *prometheus.CounterVec   // labels: method, result={hit,miss}
	TideAPIDuration    *prometheus.HistogramVec // labels: method
	TideAPIRetries     prometheus.Counter

	ReconcileExcludedSeries prometheus.Counter
	ReconcileDuration       prometheus.Histogram

	SoundingsGeoreferenced prometheus.Counter
	SoundingsSkippedNoZone prometheus.Counter
	SoundingsOutOfTolerance prometheus.Counter

	PipelineRunning  prometheus.Gauge
	PipelineDuration prometheus.Histogram
}

const namespace = "csb_processing"

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := build()
	prometheus.MustRegister(
		m.FilesRead, m.RowsIngested, m.RowsDropped, m.RowsCleaned, m.ParseErrors,
		m.TideZonesBuilt, m.UnzonedRows,
		m.TideAPIRequests, m.TideAPICacheHits, m.TideAPIDuration, m.TideAPIRetries,
		m.ReconcileExcludedSeries, m.ReconcileDuration,
		m.SoundingsGeoreferenced, m.SoundingsSkippedNoZone, m.SoundingsOutOfTolerance,
		m.PipelineRunning, m.PipelineDuration,
	)
	return m
}

// NewMetricsForTesting builds Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return build()
}

func build() *Metrics {
	return &Metrics{
		FilesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_read_total", Help: "Total input files read by the parser pool.",
		}),
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_ingested_total", Help: "Total soundings parsed across all formats.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_dropped_total", Help: "Total rows dropped during parsing due to coercion failure.",
		}),
		RowsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_cleaned_total", Help: "Total rows removed by the range-filter cleaner.",
		}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "parse_errors_total", Help: "Fatal per-file parsing errors by format.",
		}, []string{"format"}),
		TideZonesBuilt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "tide_zones_built", Help: "Number of tide zones tessellated for the current run.",
		}),
		UnzonedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "unzoned_rows_total", Help: "Soundings that fell outside every tide zone.",
		}),
		TideAPIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tide_api_requests_total", Help: "Tidal API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		TideAPICacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tide_api_cache_total", Help: "Tidal API cache lookups by method and result.",
		}, []string{"method", "result"}),
		TideAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tide_api_duration_seconds", Help: "Tidal API request duration in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		TideAPIRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tide_api_retries_total", Help: "Total retried tidal API requests.",
		}),
		ReconcileExcludedSeries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reconcile_excluded_series_total", Help: "Series excluded after exhausting interpolation retries.",
		}),
		ReconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "reconcile_duration_seconds", Help: "Duration of the reconciliation stage across all work units of a run.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SoundingsGeoreferenced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "soundings_georeferenced_total", Help: "Soundings successfully reduced to a processed depth.",
		}),
		SoundingsSkippedNoZone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "soundings_skipped_no_zone_total", Help: "Soundings skipped during georeferencing for lacking a tide zone.",
		}),
		SoundingsOutOfTolerance: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "soundings_out_of_tolerance_total", Help: "Soundings skipped for exceeding the water-level sample tolerance.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pipeline_running", Help: "1 when the pipeline is active, 0 when shut down.",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pipeline_duration_seconds", Help: "Duration of a complete run.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}
