// Package metrics exposes posview's Prometheus collectors on a private
// registry. Every method is safe on a nil *Metrics, so components can be
// built without one in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "posview"

// Pass outcomes.
const (
	OutcomeApplied  = "applied"  // patch accepted by the page
	OutcomeNoop     = "noop"     // nothing to change
	OutcomeStale    = "stale"    // page moved on, retried next frame
	OutcomeError    = "error"    // snapshot or patch failed
	OutcomeInactive = "inactive" // session not on the POS screen
)

// Metrics holds the collectors.
type Metrics struct {
	reg *prometheus.Registry

	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram
	signals      *prometheus.CounterVec
	modeChanges  *prometheus.CounterVec
	rows         prometheus.Gauge
	thumbnails   prometheus.Gauge
	active       prometheus.Gauge
	mode         *prometheus.GaugeVec
}

// New registers every collector, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Reconciliation passes by outcome.",
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Snapshot, classify and patch time of one pass.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Page signals received by kind.",
		}, []string{"kind"}),
		modeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mode_changes_total",
			Help:      "User mode changes by target mode.",
		}, []string{"mode"}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows",
			Help:      "Item rows found by the last pass.",
		}),
		thumbnails: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thumbnails",
			Help:      "Thumbnails found by the last pass.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active",
			Help:      "1 while the POS screen is shown and the anchor was found.",
		}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "1 for the current mode.",
		}, []string{"mode"}),
	}
	m.reg.MustRegister(
		m.passes, m.passDuration, m.signals, m.modeChanges,
		m.rows, m.thumbnails, m.active, m.mode,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObservePass records one pass.
func (m *Metrics) ObservePass(outcome string, d time.Duration, rows, thumbnails int) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(d.Seconds())
	if outcome == OutcomeApplied || outcome == OutcomeNoop {
		m.rows.Set(float64(rows))
		m.thumbnails.Set(float64(thumbnails))
	}
}

// Signal counts one page signal.
func (m *Metrics) Signal(kind string) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(kind).Inc()
}

// ModeChanged counts a user mode change and updates the mode gauge.
func (m *Metrics) ModeChanged(mode string) {
	if m == nil {
		return
	}
	m.modeChanges.WithLabelValues(mode).Inc()
	m.SetMode(mode)
}

// SetMode sets the mode gauge without counting a change.
func (m *Metrics) SetMode(mode string) {
	if m == nil {
		return
	}
	m.mode.Reset()
	m.mode.WithLabelValues(mode).Set(1)
}

// SetActive flips the active gauge.
func (m *Metrics) SetActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.active.Set(1)
		return
	}
	m.active.Set(0)
	m.rows.Set(0)
	m.thumbnails.Set(0)
}
