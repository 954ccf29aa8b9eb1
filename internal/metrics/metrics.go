// Package metrics is a common package for authtab's metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is prepended to every metric name.
const Namespace = "authtab"

// Provider is a metrics provider backed by Prometheus.
type Provider struct {
	lines   prometheus.Counter
	records *prometheus.CounterVec
	drops   *prometheus.CounterVec
}

// NewProvider returns a Provider registered with the default registerer.
func NewProvider() *Provider {
	return NewProviderForRegisterer(prometheus.DefaultRegisterer)
}

// NewProviderForRegisterer returns a Provider that registers its
// collectors with r.
func NewProviderForRegisterer(r prometheus.Registerer) *Provider {
	p := &Provider{
		lines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:      "lines_total",
				Namespace: Namespace,
				Help:      "The total number of input lines scanned.",
			},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "records_total",
				Namespace: Namespace,
				Help:      "The total number of classified security event records.",
			},
			[]string{"event_type"},
		),
		drops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "drops_total",
				Namespace: Namespace,
				Help:      "The total number of lines dropped as inapplicable.",
			},
			[]string{"reason"},
		),
	}

	r.MustRegister(p.lines, p.records, p.drops)
	return p
}

// IncLines increments the scanned line counter.
func (p *Provider) IncLines() {
	p.lines.Inc()
}

// IncRecords increments the record counter for the given event type.
func (p *Provider) IncRecords(eventType string) {
	p.records.WithLabelValues(eventType).Inc()
}

// IncDropped increments the drop counter for the given reason.
func (p *Provider) IncDropped(reason string) {
	p.drops.WithLabelValues(reason).Inc()
}
