// Package metrics owns the Prometheus registry served on the ops listener.
// Every series is namespaced "xelns" and carries only bounded labels.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xelns/xelns-web/internal/version"
)

const namespace = "xelns"

type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	// http
	inflight  prometheus.Gauge
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	respBytes *prometheus.HistogramVec
	panics    prometheus.Counter
	limited   prometheus.Counter
	limitFull prometheus.Counter

	// process
	buildInfo *prometheus.GaugeVec
	profiling prometheus.Gauge

	// served site
	siteSource   *prometheus.GaugeVec
	siteInfo     *prometheus.GaugeVec
	siteLoadedAt prometheus.Gauge
	polls        prometheus.Counter
	swaps        prometheus.Counter
	watchErrors  *prometheus.CounterVec
	loadSeconds  prometheus.Histogram
	lastScan     prometheus.Gauge
	stale        prometheus.Gauge

	// content flow
	storeRequests *prometheus.CounterVec
	autosaves     *prometheus.CounterVec
	reconciles    *prometheus.CounterVec
	generations   *prometheus.CounterVec
	genSeconds    prometheus.Histogram
}

// New builds a private registry with the Go and process collectors and
// every xelns series.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	counter := func(sub, name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: sub, Name: name, Help: help})
	}
	counterVec := func(sub, name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Subsystem: sub, Name: name, Help: help}, labels)
	}
	gauge := func(sub, name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Subsystem: sub, Name: name, Help: help})
	}
	gaugeVec := func(sub, name, help string, labels ...string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Subsystem: sub, Name: name, Help: help}, labels)
	}

	m := &ServerMetrics{
		reg: reg,

		inflight: gauge("http", "inflight_requests", "In-flight HTTP requests."),
		requests: counterVec("http", "requests_total", "HTTP requests by method, route and status.", "method", "route", "status"),
		errors:   counterVec("http", "errors_total", "HTTP 5xx responses by method and route.", "method", "route"),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		respBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "response_size_bytes",
			Help:      "HTTP response body size by method and route.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}, []string{"method", "route"}),
		panics:    counter("http", "panics_total", "Recovered handler panics."),
		limited:   counter("http", "rate_limited_total", "Requests rejected by the rate limiter."),
		limitFull: counter("http", "rate_limit_capacity_total", "Times the rate limiter visitor table was full."),

		buildInfo: gaugeVec("", "build_info", "Build metadata; the value is always 1.",
			"app", "component", "version", "commit", "commit_date", "build_id", "build_date", "vcs_dirty", "go_version"),
		profiling: gauge("", "profiling_active", "1 when continuous profiling is running."),

		siteSource:   gaugeVec("site", "source_info", "Where the served site came from; the value is always 1.", "source"),
		siteInfo:     gaugeVec("site", "info", "Identity of the served site; the value is always 1.", "version", "sha256"),
		siteLoadedAt: gauge("site", "loaded_timestamp_seconds", "When the served site was loaded."),
		polls:        counter("site", "watcher_polls_total", "Output directory scans."),
		swaps:        counter("site", "watcher_swaps_total", "Generated sites swapped in."),
		watchErrors:  counterVec("site", "watcher_errors_total", "Watcher failures by type.", "type"),
		loadSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "site", Name: "load_duration_seconds",
			Help:      "Time to load and validate a generated site.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		lastScan: gauge("site", "watcher_last_success_timestamp_seconds", "Last successful output directory scan."),
		stale:    gauge("site", "watcher_stale", "1 when scans have been failing for longer than the stale threshold."),

		storeRequests: counterVec("store", "requests_total", "Store endpoint requests by operation and outcome.", "op", "outcome"),
		autosaves:     counterVec("workspace", "autosave_total", "Debounced auto-save pushes by outcome.", "outcome"),
		reconciles:    counterVec("workspace", "reconcile_total", "Published snapshot reconciliation passes by outcome.", "outcome"),
		generations:   counterVec("sitegen", "runs_total", "Static site generations by outcome.", "outcome"),
		genSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "sitegen", Name: "duration_seconds",
			Help:      "Time to build and inject a static site.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
	}
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return m
}

// Handler serves the registry in Prometheus or OpenMetrics format.
func (m *ServerMetrics) Handler() http.Handler { return m.handler }

// SetBuildInfoFromVersion is called once at startup.
func (m *ServerMetrics) SetBuildInfoFromVersion(app, component string, vi version.Info) {
	m.buildInfo.WithLabelValues(app, component, vi.Version, vi.Commit, vi.CommitDate,
		vi.BuildId, vi.BuildDate, vi.Dirty(), vi.GoVersion).Set(1)
}

func (m *ServerMetrics) SetProfilingActive(active bool) { m.profiling.Set(b2f(active)) }

func (m *ServerMetrics) IncHttpPanic()         { m.panics.Inc() }
func (m *ServerMetrics) IncRateLimitDenied()   { m.limited.Inc() }
func (m *ServerMetrics) IncRateLimitCapacity() { m.limitFull.Inc() }

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
