package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "livability"

// Metrics holds the Prometheus counters and histograms for the fetch,
// ranking and recommendation paths.
type Metrics struct {
	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: kind={temperature,air_quality}, outcome={success,error}
	ProviderRetries  *prometheus.CounterVec   // labels: kind
	ProviderDuration *prometheus.HistogramVec // labels: kind

	// Fetch cycle metrics.
	FetchCycleDuration prometheus.Histogram
	DistrictsFetched   prometheus.Counter
	DistrictsFailed    prometheus.Counter
	BatchesPublished   prometheus.Counter
	FetchCyclesSkipped prometheus.Counter

	// Consumer metrics. EventsConsumed is labelled by subscriber and
	// outcome, RankingRuns by outcome, ForecastCache by result and
	// Recommendations by reason code.
	EventsConsumed  *prometheus.CounterVec
	RankingRuns     *prometheus.CounterVec
	ForecastsStored prometheus.Counter
	ForecastCache   *prometheus.CounterVec
	Recommendations *prometheus.CounterVec
	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderRetries,
		m.ProviderDuration,
		m.FetchCycleDuration,
		m.DistrictsFetched,
		m.DistrictsFailed,
		m.BatchesPublished,
		m.FetchCyclesSkipped,
		m.EventsConsumed,
		m.RankingRuns,
		m.ForecastsStored,
		m.ForecastCache,
		m.Recommendations,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      help("Weather provider requests by series kind and outcome."),
		}, []string{"kind", "outcome"}),
		ProviderRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      help("Weather provider retries by series kind."),
		}, []string{"kind"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      help("Weather provider call duration including retries."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		FetchCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_cycle_duration_seconds",
			Help:      help("Duration of a complete fetch-extract-publish cycle."),
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		DistrictsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "districts_fetched_total",
			Help:      help("Districts that produced at least one daily fact."),
		}),
		DistrictsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "districts_failed_total",
			Help:      help("Districts dropped from a batch after a fetch or aggregation failure."),
		}),
		BatchesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_published_total",
			Help:      help("Weather batch events published."),
		}),
		FetchCyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cycles_skipped_total",
			Help:      help("Fetch cycles skipped because another instance held the fetch lease."),
		}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      help("Batch events delivered to subscribers by outcome."),
		}, []string{"subscriber", "outcome"}),
		RankingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_runs_total",
			Help:      help("Ranking runs by outcome."),
		}, []string{"outcome"}),
		ForecastsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_stored_total",
			Help:      help("Daily forecasts upserted into the durable store."),
		}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      help("Forecast cache lookups by result."),
		}, []string{"result"}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      help("Travel recommendations by reason code."),
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the fetch loop is active, 0 when shut down."),
		}),
	}
}
