// Package metrics holds the Prometheus metrics of a single prunelab run.
//
// Each run owns its registry. When a textfile path is configured the
// registry is written once at exit in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for one command invocation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Log and record files
	FilesProcessedTotal *prometheus.CounterVec
	FilesSkippedTotal   *prometheus.CounterVec
	RowsWrittenTotal    *prometheus.CounterVec

	// Training
	Epoch            prometheus.Gauge
	Loss             *prometheus.GaugeVec
	Accuracy         *prometheus.GaugeVec
	EvalDuration     prometheus.Histogram
	ScalerSkipsTotal prometheus.Counter
	LossScale        prometheus.Gauge
}

// New creates metrics registered on a fresh registry.
//
// All metrics are prefixed with "prunelab_".
//
// Metrics:
//   - prunelab_files_processed_total{command} - Files parsed successfully
//   - prunelab_files_skipped_total{command,reason} - Files logged and skipped
//   - prunelab_rows_written_total{output} - Rows written per output file
//   - prunelab_epoch - Last completed epoch
//   - prunelab_loss{split} - Last average loss for "train" or "test"
//   - prunelab_accuracy_percent{k} - Last top-k accuracy for "top1" or "top5"
//   - prunelab_eval_duration_seconds - Histogram of evaluation times
//   - prunelab_scaler_skipped_steps_total - Optimizer steps skipped on overflow
//   - prunelab_loss_scale - Current gradient scaler scale
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FilesProcessedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prunelab_files_processed_total",
				Help: "Total number of input files parsed",
			},
			[]string{"command"},
		),

		FilesSkippedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prunelab_files_skipped_total",
				Help: "Total number of input files skipped after an error",
			},
			[]string{"command", "reason"},
		),

		RowsWrittenTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prunelab_rows_written_total",
				Help: "Total number of rows written to output tables",
			},
			[]string{"output"},
		),

		Epoch: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "prunelab_epoch",
				Help: "Last completed training epoch",
			},
		),

		Loss: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prunelab_loss",
				Help: "Average loss of the last epoch",
			},
			[]string{"split"}, // "train" or "test"
		),

		Accuracy: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prunelab_accuracy_percent",
				Help: "Top-k test accuracy of the last evaluation",
			},
			[]string{"k"}, // "top1" or "top5"
		),

		EvalDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "prunelab_eval_duration_seconds",
				Help:    "Duration of test set evaluation in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
			},
		),

		ScalerSkipsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "prunelab_scaler_skipped_steps_total",
				Help: "Total number of optimizer steps skipped on non-finite gradients",
			},
		),

		LossScale: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "prunelab_loss_scale",
				Help: "Current dynamic loss scale",
			},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordFile records a successfully parsed input file.
func (m *Metrics) RecordFile(command string) {
	if m == nil {
		return
	}
	m.FilesProcessedTotal.WithLabelValues(command).Inc()
}

// RecordSkip records an input file that was skipped.
func (m *Metrics) RecordSkip(command, reason string) {
	if m == nil {
		return
	}
	m.FilesSkippedTotal.WithLabelValues(command, reason).Inc()
}

// RecordRows records rows written to an output file.
func (m *Metrics) RecordRows(output string, n int) {
	if m == nil {
		return
	}
	m.RowsWrittenTotal.WithLabelValues(output).Add(float64(n))
}

// RecordEval records one evaluation. Non-finite values are not exported.
func (m *Metrics) RecordEval(testLoss, top1, top5, seconds float64) {
	if m == nil {
		return
	}
	setFinite(m.Loss.WithLabelValues("test"), testLoss)
	setFinite(m.Accuracy.WithLabelValues("top1"), top1)
	setFinite(m.Accuracy.WithLabelValues("top5"), top5)
	if !math.IsNaN(seconds) {
		m.EvalDuration.Observe(seconds)
	}
}

// RecordEpoch records the end of a training epoch.
func (m *Metrics) RecordEpoch(epoch int, trainLoss float64) {
	if m == nil {
		return
	}
	m.Epoch.Set(float64(epoch))
	setFinite(m.Loss.WithLabelValues("train"), trainLoss)
}

// RecordScaler records the scaler state after an update.
func (m *Metrics) RecordScaler(scale float64, skipped bool) {
	if m == nil {
		return
	}
	m.LossScale.Set(scale)
	if skipped {
		m.ScalerSkipsTotal.Inc()
	}
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

func setFinite(g prometheus.Gauge, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	g.Set(v)
}
