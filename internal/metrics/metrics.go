package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	researchRuns     *prometheus.CounterVec
	fetchesTotal     *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	agentToolCalls   *prometheus.CounterVec
	jobsActive       *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_backtests_total",
			Help: "Total number of backtest variants simulated",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_backtest_duration_seconds",
			Help:    "Backtest variant duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)
	r.researchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_research_runs_total",
			Help: "Total number of variant comparisons by verdict",
		},
		[]string{"verdict"},
	)
	r.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_price_fetches_total",
			Help: "Total number of price history lookups",
		},
		[]string{"source", "result"},
	)
	r.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_price_fetch_duration_seconds",
			Help:    "Remote price download duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	r.agentToolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_agent_tool_calls_total",
			Help: "Total number of research agent tool invocations",
		},
		[]string{"tool", "status"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.researchRuns)
	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.agentToolCalls)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a backtest variant completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordResearch records a finished comparison.
func (r *Registry) RecordResearch(robust bool) {
	verdict := "not_robust"
	if robust {
		verdict = "robust"
	}
	r.researchRuns.WithLabelValues(verdict).Inc()
}

// RecordFetch records a price lookup. result is one of "hit", "miss" or "error".
func (r *Registry) RecordFetch(source, result string) {
	r.fetchesTotal.WithLabelValues(source, result).Inc()
}

// ObserveDownload records the duration of a remote download.
func (r *Registry) ObserveDownload(source string, duration float64) {
	r.fetchDuration.WithLabelValues(source).Observe(duration)
}

// RecordToolCall records an agent tool invocation.
func (r *Registry) RecordToolCall(tool, status string) {
	r.agentToolCalls.WithLabelValues(tool, status).Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
