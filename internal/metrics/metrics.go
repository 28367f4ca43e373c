// Package metrics exposes runtime counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reload outcomes.
const (
	OutcomeApplied = "applied"
	OutcomePartial = "partial"
	OutcomeAborted = "aborted"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	ReloadsTotal   *prometheus.CounterVec
	ReloadDuration prometheus.Histogram

	ModuleLoadFailures      prometheus.Counter
	ModuleConstructFailures prometheus.Counter
	ModuleConfigRejections  *prometheus.CounterVec
	StylesheetFailures      prometheus.Counter

	ModulesLoaded    prometheus.Gauge
	ActivitiesActive prometheus.Gauge
	UICommandsTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on registry. A nil
// registry gets a fresh one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "islet_reloads_total",
				Help: "Reload sequences run, by outcome",
			},
			[]string{"outcome"},
		),
		ReloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "islet_reload_duration_seconds",
				Help:    "Time spent in the reload sequence",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		ModuleLoadFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "islet_module_load_failures_total",
				Help: "Module files skipped during discovery",
			},
		),
		ModuleConstructFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "islet_module_construct_failures_total",
				Help: "Module constructors that failed",
			},
		),
		ModuleConfigRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "islet_module_config_rejections_total",
				Help: "Config pushes rejected by a module",
			},
			[]string{"module"},
		),
		StylesheetFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "islet_stylesheet_failures_total",
				Help: "Stylesheet compilations that failed",
			},
		),
		ModulesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "islet_modules_loaded",
				Help: "Modules in the registry",
			},
		),
		ActivitiesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "islet_activities",
				Help: "Activities held by the layout",
			},
		),
		UICommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "islet_ui_commands_total",
				Help: "UI commands applied on the loop, by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.ReloadsTotal,
		m.ReloadDuration,
		m.ModuleLoadFailures,
		m.ModuleConstructFailures,
		m.ModuleConfigRejections,
		m.StylesheetFailures,
		m.ModulesLoaded,
		m.ActivitiesActive,
		m.UICommandsTotal,
	)
	return m
}

// ObserveReload records one reload sequence.
func (m *Metrics) ObserveReload(outcome string, d time.Duration) {
	m.ReloadsTotal.WithLabelValues(outcome).Inc()
	m.ReloadDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
