// Package metrics provides Prometheus metrics for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for landing, staging and
// warehouse loads. A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	registry *prometheus.Registry

	rowsLandedTotal  *prometheus.CounterVec
	rowsStagedTotal  *prometheus.CounterVec
	rowsLoadedTotal  *prometheus.CounterVec
	orphansTotal     *prometheus.CounterVec
	chunksTotal      *prometheus.CounterVec
	qualityChecks    *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	stageRunsTotal   *prometheus.CounterVec
	watermarkGauge   *prometheus.GaugeVec
	lastSuccessGauge *prometheus.GaugeVec

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewPipelineMetrics creates and registers pipeline metrics on registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.rowsLandedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_rows_landed_total",
			Help: "Total raw rows landed from source files",
		},
		[]string{"table"},
	)

	m.rowsStagedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_rows_staged_total",
			Help: "Total cleaned rows written to staging",
		},
		[]string{"table"},
	)

	m.rowsLoadedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_rows_loaded_total",
			Help: "Total rows upserted into dimensional tables",
		},
		[]string{"table"},
	)

	m.orphansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_orphan_rows_dropped_total",
			Help: "Total child rows dropped for a missing parent key",
		},
		[]string{"stage"}, // stage: staging, transform
	)

	m.chunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_chunks_committed_total",
			Help: "Total chunk transactions committed",
		},
		[]string{"table"},
	)

	m.qualityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_quality_checks_total",
			Help: "Total quality check results",
		},
		[]string{"suite", "status"}, // status: pass, fail
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_stage_duration_seconds",
			Help:    "Time taken by each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~164s
		},
		[]string{"stage"},
	)

	m.stageRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_stage_runs_total",
			Help: "Total pipeline stage runs by outcome",
		},
		[]string{"stage", "status"},
	)

	m.watermarkGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warehouse_watermark_timestamp_seconds",
			Help: "Current watermark per raw table as a unix timestamp",
		},
		[]string{"table"},
	)

	m.lastSuccessGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warehouse_stage_last_success_timestamp_seconds",
			Help: "Unix time of the last successful stage run",
		},
		[]string{"stage"},
	)

	m.collectors = []prometheus.Collector{
		m.rowsLandedTotal,
		m.rowsStagedTotal,
		m.rowsLoadedTotal,
		m.orphansTotal,
		m.chunksTotal,
		m.qualityChecks,
		m.stageDuration,
		m.stageRunsTotal,
		m.watermarkGauge,
		m.lastSuccessGauge,
	}
}

// Describe implements the Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

func (m *PipelineMetrics) RecordLanded(table string, rows int) {
	if m == nil {
		return
	}
	m.rowsLandedTotal.WithLabelValues(table).Add(float64(rows))
}

func (m *PipelineMetrics) RecordStaged(table string, rows int) {
	if m == nil {
		return
	}
	m.rowsStagedTotal.WithLabelValues(table).Add(float64(rows))
}

func (m *PipelineMetrics) RecordLoaded(table string, rows int) {
	if m == nil {
		return
	}
	m.rowsLoadedTotal.WithLabelValues(table).Add(float64(rows))
}

func (m *PipelineMetrics) RecordOrphans(stage string, rows int) {
	if m == nil {
		return
	}
	m.orphansTotal.WithLabelValues(stage).Add(float64(rows))
}

func (m *PipelineMetrics) RecordChunk(table string) {
	if m == nil {
		return
	}
	m.chunksTotal.WithLabelValues(table).Inc()
}

func (m *PipelineMetrics) RecordQualityResult(suite string, passed bool) {
	if m == nil {
		return
	}
	status := "pass"
	if !passed {
		status = "fail"
	}
	m.qualityChecks.WithLabelValues(suite, status).Inc()
}

// RecordStage observes a finished stage. A nil err counts as success.
func (m *PipelineMetrics) RecordStage(stage string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.lastSuccessGauge.WithLabelValues(stage).SetToCurrentTime()
	}
	m.stageRunsTotal.WithLabelValues(stage, status).Inc()
}

func (m *PipelineMetrics) SetWatermark(table string, ts time.Time) {
	if m == nil || ts.IsZero() {
		return
	}
	m.watermarkGauge.WithLabelValues(table).Set(float64(ts.Unix()))
}

// WriteTextfile writes every metric on the registry in the node exporter
// textfile format.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
