// Package metrics provides Prometheus metrics for the prediction pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for one pipeline process.
type Manager struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	enabled         bool
	runLabels       map[string]string
	registry        prometheus.Registerer

	// Data
	tablesLoaded     *prometheus.CounterVec
	tableRows        *prometheus.GaugeVec
	rowsBuilt        prometheus.Gauge
	featureCount     prometheus.Gauge
	degradedFeatures *prometheus.GaugeVec

	// Training
	foldDuration      prometheus.Histogram
	fitLatency        *prometheus.HistogramVec
	evaluationMetric  *prometheus.GaugeVec
	bootstrapDuration prometheus.Histogram

	// Runs
	runs               *prometheus.CounterVec
	predictionsWritten prometheus.Counter
	errorsByStage      *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "f1pred",
		subsystem:       "pipeline",
		durationBuckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		enabled:         true,
		runLabels:       make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.runLabels)

	m.tablesLoaded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tables_loaded_total",
		Help:        "Number of input tables loaded by logical name",
		ConstLabels: labels,
	}, []string{"table"})

	m.tableRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "table_rows",
		Help:        "Row count of the last loaded version of each table",
		ConstLabels: labels,
	}, []string{"table"})

	m.rowsBuilt = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_built",
		Help:        "Rows in the last built feature matrix",
		ConstLabels: labels,
	})

	m.featureCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "feature_count",
		Help:        "Columns in the last built feature matrix",
		ConstLabels: labels,
	})

	m.degradedFeatures = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "feature_degraded",
		Help:        "1 when a declared feature could not be computed in the last build",
		ConstLabels: labels,
	}, []string{"feature"})

	m.foldDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fold_duration_milliseconds",
		Help:        "Wall time of one cross-validation fold in milliseconds",
		Buckets:     m.durationBuckets,
		ConstLabels: labels,
	})

	m.fitLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fit_latency_milliseconds",
		Help:        "Estimator fit latency in milliseconds",
		Buckets:     m.durationBuckets,
		ConstLabels: labels,
	}, []string{"model"})

	m.evaluationMetric = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluation_metric",
		Help:        "Last evaluation metric value by stage (cv, full) and key",
		ConstLabels: labels,
	}, []string{"stage", "metric"})

	m.bootstrapDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "bootstrap_duration_milliseconds",
		Help:        "Wall time of bootstrap evaluation in milliseconds",
		Buckets:     m.durationBuckets,
		ConstLabels: labels,
	})

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Pipeline runs by command and outcome",
		ConstLabels: labels,
	}, []string{"command", "status"})

	m.predictionsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_written_total",
		Help:        "Prediction rows written to disk",
		ConstLabels: labels,
	})

	m.errorsByStage = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Pipeline errors by stage and error type",
		ConstLabels: labels,
	}, []string{"stage", "error_type"})
}

// RecordTableLoaded counts a loaded table and records its size.
func (m *Manager) RecordTableLoaded(table string, rows int) {
	if !m.enabled {
		return
	}
	m.tablesLoaded.WithLabelValues(table).Inc()
	m.tableRows.WithLabelValues(table).Set(float64(rows))
}

// UpdateDataset records the shape of a built feature matrix and which
// declared features were degraded.
func (m *Manager) UpdateDataset(rows int, features []string, degraded []string) {
	if !m.enabled {
		return
	}
	m.rowsBuilt.Set(float64(rows))
	m.featureCount.Set(float64(len(features)))
	for _, f := range features {
		m.degradedFeatures.WithLabelValues(f).Set(0)
	}
	for _, f := range degraded {
		m.degradedFeatures.WithLabelValues(f).Set(1)
	}
}

// RecordFoldDuration observes one fold's wall time.
func (m *Manager) RecordFoldDuration(ms float64) {
	if m.enabled {
		m.foldDuration.Observe(ms)
	}
}

// RecordFitLatency observes an estimator fit.
func (m *Manager) RecordFitLatency(model string, ms float64) {
	if m.enabled {
		m.fitLatency.WithLabelValues(model).Observe(ms)
	}
}

// UpdateEvaluation sets the gauges of every metric in report for a stage.
func (m *Manager) UpdateEvaluation(stage string, report map[string]float64) {
	if !m.enabled {
		return
	}
	for key, v := range report {
		m.evaluationMetric.WithLabelValues(stage, key).Set(v)
	}
}

// RecordBootstrapDuration observes the bootstrap wall time.
func (m *Manager) RecordBootstrapDuration(ms float64) {
	if m.enabled {
		m.bootstrapDuration.Observe(ms)
	}
}

// RecordRun counts a finished run.
func (m *Manager) RecordRun(command, status string) {
	if m.enabled {
		m.runs.WithLabelValues(command, status).Inc()
	}
}

// RecordPredictionsWritten counts written prediction rows.
func (m *Manager) RecordPredictionsWritten(n int) {
	if m.enabled {
		m.predictionsWritten.Add(float64(n))
	}
}

// RecordError counts an error raised in a pipeline stage.
func (m *Manager) RecordError(stage, errorType string) {
	if m.enabled {
		m.errorsByStage.WithLabelValues(stage, errorType).Inc()
	}
}

// Package-level helpers operate on the global manager.

// RecordTableLoaded counts a loaded table on the global manager.
func RecordTableLoaded(table string, rows int) { globalManager.RecordTableLoaded(table, rows) }

// UpdateDataset records a built dataset on the global manager.
func UpdateDataset(rows int, features, degraded []string) {
	globalManager.UpdateDataset(rows, features, degraded)
}

// RecordFoldDuration observes a fold on the global manager.
func RecordFoldDuration(ms float64) { globalManager.RecordFoldDuration(ms) }

// RecordFitLatency observes a fit on the global manager.
func RecordFitLatency(model string, ms float64) { globalManager.RecordFitLatency(model, ms) }

// UpdateEvaluation records a report on the global manager.
func UpdateEvaluation(stage string, report map[string]float64) {
	globalManager.UpdateEvaluation(stage, report)
}

// RecordBootstrapDuration observes bootstrap time on the global manager.
func RecordBootstrapDuration(ms float64) { globalManager.RecordBootstrapDuration(ms) }

// RecordRun counts a run on the global manager.
func RecordRun(command, status string) { globalManager.RecordRun(command, status) }

// RecordPredictionsWritten counts prediction rows on the global manager.
func RecordPredictionsWritten(n int) { globalManager.RecordPredictionsWritten(n) }

// RecordError counts a stage error on the global manager.
func RecordError(stage, errorType string) { globalManager.RecordError(stage, errorType) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current state of the custom registry in the
// Prometheus text format, for node-exporter style textfile collection.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}
