// Package metrics provides Prometheus metrics for a shadowsnap run.
//
// Collectors live on a private registry so several runs in one process (and
// tests) never collide. A nil *Run is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enumeration sides
const (
	SideSource      = "source"
	SideDestination = "destination"
	SideLeft        = "left"
	SideRight       = "right"
)

// Run phases
const (
	PhaseEnumerate = "enumerate"
	PhaseMkdir     = "mkdir"
	PhaseCopy      = "copy"
	PhaseSnapshot  = "snapshot"
	PhaseDiff      = "diff"
)

// Run holds the collectors of one invocation
type Run struct {
	registry *prometheus.Registry

	entriesEnumerated *prometheus.CounterVec
	foldersCreated    prometheus.Counter
	filesCopied       prometheus.Counter
	bytesCopied       prometheus.Counter
	copyFailures      prometheus.Counter
	phaseDuration     *prometheus.HistogramVec
}

// New creates a Run with its own registry
func New() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Run{
		registry: reg,

		entriesEnumerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shadowsnap_entries_enumerated_total",
				Help: "Total number of entries listed by enumeration",
			},
			[]string{"side"},
		),

		foldersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shadowsnap_folders_created_total",
				Help: "Total number of folders created in the destination",
			},
		),

		filesCopied: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shadowsnap_files_copied_total",
				Help: "Total number of files copied into the destination",
			},
		),

		bytesCopied: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shadowsnap_bytes_copied_total",
				Help: "Total bytes copied into the destination",
			},
		),

		copyFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shadowsnap_copy_failures_total",
				Help: "Total number of folders or files that could not be produced",
			},
		),

		phaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shadowsnap_phase_duration_seconds",
				Help:    "Duration of each run phase in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
	}
}

// RecordEnumerated adds n listed entries for side
func (r *Run) RecordEnumerated(side string, n int) {
	if r == nil {
		return
	}
	r.entriesEnumerated.WithLabelValues(side).Add(float64(n))
}

// RecordFolderCreated counts one created folder
func (r *Run) RecordFolderCreated() {
	if r == nil {
		return
	}
	r.foldersCreated.Inc()
}

// RecordFileCopied counts one copied file of size bytes
func (r *Run) RecordFileCopied(size int64) {
	if r == nil {
		return
	}
	r.filesCopied.Inc()
	r.bytesCopied.Add(float64(size))
}

// RecordFailure counts one failed folder or file
func (r *Run) RecordFailure() {
	if r == nil {
		return
	}
	r.copyFailures.Inc()
}

// ObservePhase records how long phase took
func (r *Run) ObservePhase(phase string, d time.Duration) {
	if r == nil {
		return
	}
	r.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Time starts timing phase; call the returned func when it ends
func (r *Run) Time(phase string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		r.ObservePhase(phase, d)
		return d
	}
}

// WriteTextfile writes every collector in the node_exporter textfile format
func (r *Run) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
