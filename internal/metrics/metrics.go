// Package metrics bridges the engine's measurement hooks onto Prometheus
// collectors and optionally serves the scrape endpoint.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inquesthq/inquest/internal/analysis"
	"github.com/inquesthq/inquest/internal/logging"
)

// Sink implements analysis.MetricsSink on Prometheus collectors. Metric
// names are used verbatim; the engine's well-known metrics are registered up
// front with curated help text, anything else is registered lazily on first
// use. RecordMetric observes the duration histogram for the engine's
// duration metric and sets a gauge for every other name.
type Sink struct {
	mu  sync.Mutex
	reg prometheus.Registerer

	duration prometheus.Histogram
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge

	logger *logging.Logger
}

var _ analysis.MetricsSink = (*Sink)(nil)

// NewSink creates a sink registered against the given registerer. Pass a
// dedicated prometheus.NewRegistry() so tests and multiple sinks never
// collide on the global registry.
func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		reg:      reg,
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
		logger:   logging.GetLogger("metrics"),
	}

	s.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    analysis.MetricAnalysisDurationMs,
		Help:    "End-to-end analysis duration in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	s.register(analysis.MetricAnalysisDurationMs, s.duration)

	for name, help := range map[string]string{
		analysis.MetricAnalysisCacheHit:       "Analyses served from the result cache",
		analysis.MetricAnalysisCacheMiss:      "Analyses that missed the result cache",
		analysis.MetricAnalysisCompletedTotal: "Analyses that completed the full pipeline",
		analysis.MetricAnalysisErrorTotal:     "Analyses that fell back after a pipeline failure",
	} {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		s.register(name, c)
		s.counters[name] = c
	}

	return s
}

// RecordMetric implements analysis.MetricsSink.
func (s *Sink) RecordMetric(name string, value float64) {
	if name == analysis.MetricAnalysisDurationMs {
		s.duration.Observe(value)
		return
	}
	s.gauge(name).Set(value)
}

// IncrementCounter implements analysis.MetricsSink.
func (s *Sink) IncrementCounter(name string) {
	s.counter(name).Inc()
}

func (s *Sink) counter(name string) prometheus.Counter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[name]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: sanitizeMetricName(name),
		Help: "Counter reported by the engine",
	})
	s.register(name, c)
	s.counters[name] = c
	return c
}

func (s *Sink) gauge(name string) prometheus.Gauge {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.gauges[name]; ok {
		return g
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: sanitizeMetricName(name),
		Help: "Gauge reported by the engine",
	})
	s.register(name, g)
	s.gauges[name] = g
	return g
}

// register keeps a registration failure from taking the process down; the
// collector still works locally, it just will not be scraped.
func (s *Sink) register(name string, c prometheus.Collector) {
	if err := s.reg.Register(c); err != nil {
		s.logger.Warn("Failed to register metric %s: %v", name, err)
	}
}

// sanitizeMetricName maps an arbitrary metric name onto the Prometheus
// charset [a-zA-Z0-9_:], replacing anything else with an underscore.
func sanitizeMetricName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
