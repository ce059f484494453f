package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Every Record method is safe on a nil
// receiver.
type Metrics struct {
	// Build run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Compilation metrics
	CompilationTotal       *prometheus.CounterVec
	CompilationDuration    *prometheus.HistogramVec
	CompilationErrorsTotal *prometheus.CounterVec

	// Extraction metrics
	ArchivesTotal       *prometheus.CounterVec
	ExtractedFilesTotal prometheus.Counter

	// Output metrics
	GeneratedFiles         prometheus.Gauge
	StaleFilesRemovedTotal prometheus.Counter

	// Cache metrics
	CacheOperationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrobuild_runs_total",
				Help: "Total number of build runs",
			},
			[]string{"state", "status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "avrobuild_run_duration_seconds",
				Help:    "Build run duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"state"},
		),

		CompilationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrobuild_compilation_total",
				Help: "Total number of compiler invocations",
			},
			[]string{"format", "status"},
		),
		CompilationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "avrobuild_compilation_duration_seconds",
				Help:    "Compiler invocation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		CompilationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrobuild_compilation_errors_total",
				Help: "Total number of compilation errors",
			},
			[]string{"format", "error_type"},
		),

		ArchivesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrobuild_archives_total",
				Help: "Total number of dependency archives processed",
			},
			[]string{"result"},
		),
		ExtractedFilesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "avrobuild_extracted_files_total",
				Help: "Total number of schema files unpacked from archives",
			},
		),

		GeneratedFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "avrobuild_generated_files",
				Help: "Number of generated source files after the last run",
			},
		),
		StaleFilesRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "avrobuild_stale_files_removed_total",
				Help: "Total number of generated files removed because their schema disappeared",
			},
		),

		CacheOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrobuild_cache_operations_total",
				Help: "Total number of build state cache operations",
			},
			[]string{"store", "operation", "result"},
		),
	}

	registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.CompilationTotal,
		m.CompilationDuration,
		m.CompilationErrorsTotal,
		m.ArchivesTotal,
		m.ExtractedFilesTotal,
		m.GeneratedFiles,
		m.StaleFilesRemovedTotal,
		m.CacheOperationsTotal,
	)

	return m
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordRun records a finished build run. state is "clean" or "stale".
func (m *Metrics) RecordRun(state string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(state, status(err)).Inc()
	m.RunDuration.WithLabelValues(state).Observe(duration.Seconds())
}

// RecordCompilation records one compiler invocation
func (m *Metrics) RecordCompilation(format string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.CompilationTotal.WithLabelValues(format, status(err)).Inc()
	m.CompilationDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// RecordCompilationError records a compilation error by kind
func (m *Metrics) RecordCompilationError(format, errorType string) {
	if m == nil {
		return
	}
	m.CompilationErrorsTotal.WithLabelValues(format, errorType).Inc()
}

// RecordArchive records one processed archive
func (m *Metrics) RecordArchive(extracted bool, files int) {
	if m == nil {
		return
	}
	if !extracted {
		m.ArchivesTotal.WithLabelValues("skipped").Inc()
		return
	}
	m.ArchivesTotal.WithLabelValues("extracted").Inc()
	m.ExtractedFilesTotal.Add(float64(files))
}

// SetGeneratedFiles records the size of the generated source set
func (m *Metrics) SetGeneratedFiles(n int) {
	if m == nil {
		return
	}
	m.GeneratedFiles.Set(float64(n))
}

// RecordStaleRemoved records generated files deleted by a run
func (m *Metrics) RecordStaleRemoved(n int) {
	if m == nil || n == 0 {
		return
	}
	m.StaleFilesRemovedTotal.Add(float64(n))
}

// RecordCache records a cache store operation. result is "hit", "miss",
// "ok" or "error".
func (m *Metrics) RecordCache(store, operation, result string) {
	if m == nil {
		return
	}
	m.CacheOperationsTotal.WithLabelValues(store, operation, result).Inc()
}

// MetricsHandler returns the /metrics handler for registry
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
