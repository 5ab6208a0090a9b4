// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package metrics exports lod controller and scheduler events as
// Prometheus metrics.
package metrics

import (
	"github.com/gogpu/lod"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricQualityLevel        = "lod_quality_level"
	MetricQualityChangesTotal = "lod_quality_changes_total"
	MetricFPS                 = "lod_fps"
	MetricAverageFPS          = "lod_average_fps"
	MetricStageDuration       = "lod_stage_duration_seconds"
	MetricStagesTotal         = "lod_stages_total"
	MetricStageMemory         = "lod_stage_estimated_memory_bytes"
	MetricLoadProgress        = "lod_load_progress_percent"
	MetricWarningsTotal       = "lod_performance_warnings_total"
	MetricErrorsTotal         = "lod_errors_total"
	MetricCancellationsTotal  = "lod_load_cancellations_total"
)

// Status label values for MetricStagesTotal.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusDegraded = "degraded"
)

// Metrics records lod events. It implements lod.Observer, so it can be
// passed to both lod.WithObserver and lod.WithStageObserver.
// All operations are thread-safe.
type Metrics struct {
	qualityLevel   prometheus.Gauge
	qualityChanges *prometheus.CounterVec
	fps            prometheus.Gauge
	averageFPS     prometheus.Gauge
	stageDuration  *prometheus.HistogramVec
	stagesTotal    *prometheus.CounterVec
	stageMemory    *prometheus.GaugeVec
	loadProgress   prometheus.Gauge
	warnings       prometheus.Counter
	errors         *prometheus.CounterVec
	cancellations  *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		qualityLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricQualityLevel,
			Help: "Current quality level (0 = minimal, 4 = ultra)",
		}),
		qualityChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricQualityChangesTotal,
				Help: "Total number of quality level changes by target level",
			},
			[]string{"level"},
		),
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricFPS,
			Help: "Frame rate measured over the last sampling interval",
		}),
		averageFPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricAverageFPS,
			Help: "Mean frame rate over the controller history window",
		}),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricStageDuration,
				Help:    "Histogram of stage render duration in seconds by stage",
				Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 3.0, 5.0, 10.0},
			},
			[]string{"stage"},
		),
		stagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricStagesTotal,
				Help: "Total number of rendered stages by stage and status",
			},
			[]string{"stage", "status"},
		),
		stageMemory: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricStageMemory,
				Help: "Estimated GPU memory of the last rendered stage in bytes",
			},
			[]string{"stage"},
		),
		loadProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLoadProgress,
			Help: "Progress of the current structure load in percent",
		}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricWarningsTotal,
			Help: "Total number of performance warnings",
		}),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricErrorsTotal,
				Help: "Total number of errors by stage",
			},
			[]string{"stage"},
		),
		cancellations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCancellationsTotal,
				Help: "Total number of cancelled loads by the stage that did not run",
			},
			[]string{"stage"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.qualityLevel,
		m.qualityChanges,
		m.fps,
		m.averageFPS,
		m.stageDuration,
		m.stagesTotal,
		m.stageMemory,
		m.loadProgress,
		m.warnings,
		m.errors,
		m.cancellations,
	}
}

// ObservePerformance copies a controller snapshot into the fps gauges.
func (m *Metrics) ObservePerformance(p lod.PerformanceMetrics) {
	m.fps.Set(p.FPS)
	m.averageFPS.Set(p.AverageFPS)
}

// SetQualityLevel sets the quality gauge without counting a change,
// e.g. for the starting level.
func (m *Metrics) SetQualityLevel(level lod.QualityLevel) {
	m.qualityLevel.Set(float64(level))
}

var _ lod.Observer = (*Metrics)(nil)

func (m *Metrics) StageStart(lod.Stage) {}

func (m *Metrics) StageComplete(r lod.StageResult) {
	stage := r.Stage.String()
	status := StatusSuccess
	switch {
	case !r.Success:
		status = StatusFailure
	case r.Degraded:
		status = StatusDegraded
	}
	m.stagesTotal.WithLabelValues(stage, status).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(r.Duration.Seconds())
	m.stageMemory.WithLabelValues(stage).Set(float64(r.EstimatedMemory))
}

func (m *Metrics) Progress(percent float64, _ lod.Stage) {
	m.loadProgress.Set(percent)
}

func (m *Metrics) QualityChange(f lod.RenderFeatureSet, _ string) {
	m.qualityLevel.Set(float64(f.Level))
	m.qualityChanges.WithLabelValues(f.Level.String()).Inc()
}

func (m *Metrics) PerformanceWarning(string) {
	m.warnings.Inc()
}

func (m *Metrics) Error(_ error, stage lod.Stage) {
	m.errors.WithLabelValues(stage.String()).Inc()
}

func (m *Metrics) Cancelled(stage lod.Stage) {
	m.cancellations.WithLabelValues(stage.String()).Inc()
}
