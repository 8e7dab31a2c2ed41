// Package metric manages the kernel's Prometheus metrics: a dedicated
// registry, the core lifecycle metrics, and an HTTP handler for scraping.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the kernel-level lifecycle metrics
type Metrics struct {
	PluginsRegistered  prometheus.Gauge
	PluginsInitialized prometheus.Gauge
	PluginsStarted     prometheus.Gauge
	PluginState        *prometheus.GaugeVec
	LifecycleFailures  *prometheus.CounterVec
	StartupDuration    *prometheus.HistogramVec
	ShutdownDuration   *prometheus.HistogramVec
}

// NewMetrics creates the kernel metrics set
func NewMetrics() *Metrics {
	return &Metrics{
		PluginsRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appkernel",
			Subsystem: "plugins",
			Name:      "registered",
			Help:      "Number of plugins currently in the registry",
		}),
		PluginsInitialized: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appkernel",
			Subsystem: "plugins",
			Name:      "initialized",
			Help:      "Number of plugins that have been initialized",
		}),
		PluginsStarted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appkernel",
			Subsystem: "plugins",
			Name:      "started",
			Help:      "Number of plugins currently started",
		}),
		PluginState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "appkernel",
			Subsystem: "plugins",
			Name:      "state",
			Help:      "Per-plugin lifecycle state (0=registered, 1=initialized, 2=started, 3=stopped)",
		}, []string{"plugin"}),
		LifecycleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appkernel",
			Subsystem: "lifecycle",
			Name:      "failures_total",
			Help:      "Total lifecycle hook failures",
		}, []string{"plugin", "hook"}),
		StartupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "appkernel",
			Subsystem: "lifecycle",
			Name:      "startup_duration_seconds",
			Help:      "Per-plugin startup hook duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"plugin"}),
		ShutdownDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "appkernel",
			Subsystem: "lifecycle",
			Name:      "shutdown_duration_seconds",
			Help:      "Per-plugin shutdown hook duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"plugin"}),
	}
}

// Registry owns the Prometheus registry the kernel and its plugins
// register against.
type Registry struct {
	prom    *prometheus.Registry
	Metrics *Metrics
}

// NewRegistry creates a registry pre-populated with the kernel metrics and
// the Go runtime collectors.
func NewRegistry() *Registry {
	prom := prometheus.NewRegistry()

	m := NewMetrics()
	prom.MustRegister(
		m.PluginsRegistered,
		m.PluginsInitialized,
		m.PluginsStarted,
		m.PluginState,
		m.LifecycleFailures,
		m.StartupDuration,
		m.ShutdownDuration,
	)

	prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{prom: prom, Metrics: m}
}

// Prometheus returns the underlying Prometheus registry for plugin
// registrations.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.prom
}

// Register adds a collector, failing on duplicates
func (r *Registry) Register(c prometheus.Collector) error {
	return r.prom.Register(c)
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveDuration records a hook duration against a histogram vec
func ObserveDuration(h *prometheus.HistogramVec, pluginName string, start time.Time) {
	h.WithLabelValues(pluginName).Observe(time.Since(start).Seconds())
}
