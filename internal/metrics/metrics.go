// Package metrics records export run counters in Prometheus format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentic-research/neutralizer/internal/assembly"
	"github.com/agentic-research/neutralizer/internal/directive"
)

// Recorder implements engine.Recorder on a caller-supplied registry, so
// that each run (and each test) can own its counters.
type Recorder struct {
	ComponentsProcessed *prometheus.CounterVec
	DuplicatesSkipped   *prometheus.CounterVec
	Exports             *prometheus.CounterVec
	FilesPurged         *prometheus.CounterVec
	PurgeFailures       *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	LastRun             prometheus.Gauge
}

// NewRecorder registers the export metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		ComponentsProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neutralizer_components_processed_total",
				Help: "Distinct components visited, by kind",
			},
			[]string{"kind"},
		),
		DuplicatesSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neutralizer_duplicates_skipped_total",
				Help: "Tree occurrences skipped because their identity was already processed",
			},
			[]string{"kind"},
		),
		Exports: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neutralizer_exports_total",
				Help: "Component exports by format and outcome",
			},
			[]string{"format", "status"},
		),
		FilesPurged: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neutralizer_files_purged_total",
				Help: "Stale files removed before export",
			},
			[]string{"format"},
		),
		PurgeFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neutralizer_purge_failures_total",
				Help: "Stale files that could not be removed",
			},
			[]string{"format"},
		),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "neutralizer_run_duration_seconds",
			Help:    "Wall time of an export run",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800},
		}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "neutralizer_last_run_timestamp_seconds",
			Help: "Unix time the last export run finished",
		}),
	}
}

func (m *Recorder) ComponentProcessed(kind assembly.Kind) {
	m.ComponentsProcessed.WithLabelValues(kind.String()).Inc()
}

func (m *Recorder) DuplicateSkipped(kind assembly.Kind) {
	m.DuplicatesSkipped.WithLabelValues(kind.String()).Inc()
}

func (m *Recorder) ExportFinished(format directive.Format, status string) {
	m.Exports.WithLabelValues(format.String(), status).Inc()
}

func (m *Recorder) PurgeFinished(format directive.Format, removed, failed int) {
	m.FilesPurged.WithLabelValues(format.String()).Add(float64(removed))
	m.PurgeFailures.WithLabelValues(format.String()).Add(float64(failed))
}

func (m *Recorder) RunFinished(elapsed time.Duration) {
	m.RunDuration.Observe(elapsed.Seconds())
	m.LastRun.SetToCurrentTime()
}

// WriteTextfile writes everything gathered from g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
