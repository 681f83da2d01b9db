package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithPrefix overrides the f1pred_pipeline_ metric name prefix. Empty parts
// keep their default.
func WithPrefix(namespace, subsystem string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithDurationBuckets sets the millisecond buckets of the fold, fit and
// bootstrap histograms.
func WithDurationBuckets(ms ...float64) Option {
	return func(m *Manager) {
		if len(ms) > 0 {
			m.durationBuckets = ms
		}
	}
}

// WithEnabled turns recording on or off. A disabled manager still registers
// its collectors so that exports keep a stable shape.
func WithEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithRunLabels attaches constant labels, such as the experiment name, to
// every metric.
func WithRunLabels(labels map[string]string) Option {
	return func(m *Manager) {
		for k, v := range labels {
			m.runLabels[k] = v
		}
	}
}

// WithRegisterer registers the collectors on reg instead of the default
// registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}
