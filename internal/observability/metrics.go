package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// extractor and the lookup server.
type Metrics struct {
	RowsRead        prometheus.Counter
	RowsSkipped     prometheus.Counter
	DuplicateKeys   prometheus.Counter
	EntriesWritten  prometheus.Gauge
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge
	PublishErrors   *prometheus.CounterVec   // labels: sink={kafka,objectstore,postgres}
	PublishDuration *prometheus.HistogramVec // labels: sink

	// Lookup server.
	RegionsLoaded prometheus.Gauge
	Lookups       *prometheus.CounterVec // labels: match={exact,suffix,numbered,partial,tokens,latlon,geocode,none}

	// Geocoding fallback.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeEnabled  prometheus.Gauge
	GeocodeLatency  prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsRead,
		m.RowsSkipped,
		m.DuplicateKeys,
		m.EntriesWritten,
		m.RunDuration,
		m.LastSuccess,
		m.PublishErrors,
		m.PublishDuration,
		m.RegionsLoaded,
		m.Lookups,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeEnabled,
		m.GeocodeLatency,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nxny_etl",
			Name:      "rows_read_total",
			Help:      "Total data rows read from the source sheet.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nxny_etl",
			Name:      "rows_skipped_total",
			Help:      "Rows skipped because every region level was blank.",
		}),
		DuplicateKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nxny_etl",
			Name:      "duplicate_keys_total",
			Help:      "Rows whose region key overwrote an earlier row.",
		}),
		EntriesWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nxny_etl",
			Name:      "entries_written",
			Help:      "Region entries in the last written map.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nxny_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-build-write run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nxny_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nxny_etl",
			Name:      "publish_errors_total",
			Help:      "Publisher failures by sink.",
		}, []string{"sink"}),
		PublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nxny_etl",
			Name:      "publish_duration_seconds",
			Help:      "Time spent publishing the map, by sink.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"sink"}),
		RegionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nxny_etl",
			Name:      "regions_loaded",
			Help:      "Regions held by the lookup server.",
		}),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nxny_etl",
			Name:      "lookups_total",
			Help:      "Grid lookups by match strategy.",
		}, []string{"match"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nxny_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nxny_etl",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nxny_etl",
			Name:      "geocode_enabled",
			Help:      "1 when the geocoding fallback is enabled, 0 otherwise.",
		}),
		GeocodeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nxny_etl",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
