package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "recovery_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the map service.
type Metrics struct {
	// Dataset loading.
	DatasetLoads    *prometheus.CounterVec // labels: dataset={cable,recovery,progress,repeater}, outcome={loaded,cached,missing,error}
	DatasetRecords  *prometheus.GaugeVec   // labels: dataset
	RecordsSkipped  *prometheus.GaugeVec   // labels: dataset; rows dropped for unparseable coordinates
	SitesUnmappable prometheus.Gauge
	ReloadDuration  prometheus.Histogram
	PipelineReady   prometheus.Gauge

	// Rendering.
	RenderCycles   prometheus.Counter
	RenderDuration prometheus.Histogram

	// Geocoding.
	GeocodeRequests     *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache        *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration  *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeThrottleWait prometheus.Histogram
	GeocodeEnabled      prometheus.Gauge

	// Snapshot publication.
	SnapshotsPublished prometheus.Counter
	SnapshotErrors     prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Workbook load attempts by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		DatasetRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Records held for each dataset after the last load.",
		}, []string{"dataset"}),
		RecordsSkipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records_skipped",
			Help:      "Rows dropped during the last load because their coordinates did not parse.",
		}, []string{"dataset"}),
		SitesUnmappable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sites_unmappable",
			Help:      "Recovery sites with neither a geocoded nor a DMS coordinate.",
		}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Duration of a full load including forward geocoding.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_ready",
			Help:      "1 once a load has completed, 0 before.",
		}),
		RenderCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_cycles_total",
			Help:      "Filter and render cycles executed.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a filter and render cycle.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		GeocodeThrottleWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_throttle_wait_seconds",
			Help:      "Time a forward lookup waited for the provider rate limit.",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.75, 1, 2},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when address geocoding is enabled, 0 otherwise.",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Recovery summary snapshots written to Kafka.",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_errors_total",
			Help:      "Snapshot publications that failed.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DatasetLoads,
		m.DatasetRecords,
		m.RecordsSkipped,
		m.SitesUnmappable,
		m.ReloadDuration,
		m.PipelineReady,
		m.RenderCycles,
		m.RenderDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeThrottleWait,
		m.GeocodeEnabled,
		m.SnapshotsPublished,
		m.SnapshotErrors,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
