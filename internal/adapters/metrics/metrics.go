// Package metrics exposes engine and daemon activity as Prometheus metrics.
// Each Metrics owns its registry so several apps can live in one process
// (tests do this) without colliding on the global default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "acsearch"

// Metrics holds every collector the daemon updates.
type Metrics struct {
	registry *prometheus.Registry

	builds        *prometheus.CounterVec
	buildErrors   *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	heapBytes     *prometheus.GaugeVec
	states        *prometheus.GaugeVec
	patterns      *prometheus.GaugeVec
	scans         *prometheus.CounterVec
	matches       *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
	requests      *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "automaton",
				Name:      "builds_total",
				Help:      "Total number of automaton builds",
			},
			[]string{"set", "kind"},
		),
		buildErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "automaton",
				Name:      "build_errors_total",
				Help:      "Total number of rejected automaton builds",
			},
			[]string{"set"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "automaton",
				Name:      "build_duration_seconds",
				Help:      "Duration of automaton construction in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs .. ~26s
			},
			[]string{"kind"},
		),
		heapBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "automaton",
				Name:      "heap_bytes",
				Help:      "Memory held by the automaton tables of a pattern set",
			},
			[]string{"set"},
		),
		states: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "automaton",
				Name:      "states",
				Help:      "Number of automaton states of a pattern set",
			},
			[]string{"set"},
		),
		patterns: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "automaton",
				Name:      "patterns",
				Help:      "Number of reportable patterns of a pattern set",
			},
			[]string{"set"},
		),
		scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scan",
				Name:      "total",
				Help:      "Total number of scans",
			},
			[]string{"set", "mode"},
		),
		matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scan",
				Name:      "matches_total",
				Help:      "Total number of matches reported",
			},
			[]string{"set", "mode"},
		),
		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scan",
				Name:      "duration_seconds",
				Help:      "Duration of a scan in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs .. ~2.6s
			},
			[]string{"mode"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "socket",
				Name:      "requests_total",
				Help:      "Total number of socket requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.builds, m.buildErrors, m.buildDuration,
		m.heapBytes, m.states, m.patterns,
		m.scans, m.matches, m.scanDuration,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveBuild records one build attempt. On success the per-set gauges are
// replaced with the new automaton's figures.
func (m *Metrics) ObserveBuild(set, kind string, elapsed time.Duration, heapBytes, states, patterns int, err error) {
	if err != nil {
		m.buildErrors.WithLabelValues(set).Inc()
		return
	}
	m.builds.WithLabelValues(set, kind).Inc()
	m.buildDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.heapBytes.WithLabelValues(set).Set(float64(heapBytes))
	m.states.WithLabelValues(set).Set(float64(states))
	m.patterns.WithLabelValues(set).Set(float64(patterns))
}

// ForgetSet drops the per-set gauges of a removed set.
func (m *Metrics) ForgetSet(set string) {
	m.heapBytes.DeleteLabelValues(set)
	m.states.DeleteLabelValues(set)
	m.patterns.DeleteLabelValues(set)
}

// ObserveScan records one completed scan.
func (m *Metrics) ObserveScan(set, mode string, elapsed time.Duration, matches int) {
	m.scans.WithLabelValues(set, mode).Inc()
	m.matches.WithLabelValues(set, mode).Add(float64(matches))
	m.scanDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveRequest records one socket request.
func (m *Metrics) ObserveRequest(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(method, outcome).Inc()
}
