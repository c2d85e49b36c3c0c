// Package metrics provides the Prometheus metrics of a combine run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/franz/pitchfx-janitor/internal/model"
)

const namespace = "pfj"

// Outcome labels for games that produced no verdict
const (
	OutcomeFailed  = "FAILED"
	OutcomeSkipped = "SKIPPED"
)

// RunMetrics contains the metrics of one combine run.
type RunMetrics struct {
	GamesTotal       *prometheus.CounterVec
	AtBatsTotal      *prometheus.CounterVec
	PatchesApplied   prometheus.Counter
	InvalidMatched   prometheus.Counter
	GameDuration     prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
	registry         *prometheus.Registry
}

// NewRunMetrics creates and registers the run metrics.
func NewRunMetrics(registry *prometheus.Registry) (*RunMetrics, error) {
	m := &RunMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register run metrics: %w", err)
	}
	return m, nil
}

func (m *RunMetrics) initMetrics() {
	m.GamesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_total",
		Help:      "Games processed, by verdict or failure outcome",
	}, []string{"outcome"})

	m.AtBatsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "at_bats_total",
		Help:      "Reconciled at-bats, by classification",
	}, []string{"classification"})

	m.PatchesApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "patches_applied_total",
		Help:      "Patches in the patch lists applied to games",
	})

	m.InvalidMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invalid_at_bats_matched_total",
		Help:      "Invalid tracked at-bats the matcher placed",
	})

	m.GameDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "game_duration_seconds",
		Help:      "Time to combine and import one game",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	m.LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last combine run finished",
	})
}

// RecordGame counts a finished game and its processing time.
func (m *RunMetrics) RecordGame(outcome string, d time.Duration) {
	m.GamesTotal.WithLabelValues(outcome).Inc()
	m.GameDuration.Observe(d.Seconds())
}

// RecordAtBats counts the at-bat classifications of a combined game.
func (m *RunMetrics) RecordAtBats(g *model.CombinedGame) {
	for _, ab := range g.AtBats() {
		m.AtBatsTotal.WithLabelValues(string(ab.Audit.Classification)).Inc()
	}
}

// RecordPatches counts applied patches and matched invalid at-bats.
func (m *RunMetrics) RecordPatches(applied, matched int) {
	m.PatchesApplied.Add(float64(applied))
	m.InvalidMatched.Add(float64(matched))
}

// MarkRunFinished sets the last run timestamp to now.
func (m *RunMetrics) MarkRunFinished() {
	m.LastRunTimestamp.SetToCurrentTime()
}

// WriteTextfile writes every metric of the registry in the text exposition
// format, for the node exporter textfile collector.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Collect implements the prometheus.Collector interface.
func (m *RunMetrics) Collect(ch chan<- prometheus.Metric) {
	m.GamesTotal.Collect(ch)
	m.AtBatsTotal.Collect(ch)
	ch <- m.PatchesApplied
	ch <- m.InvalidMatched
	ch <- m.GameDuration
	ch <- m.LastRunTimestamp
}

// Describe implements the prometheus.Collector interface.
func (m *RunMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.GamesTotal.Describe(ch)
	m.AtBatsTotal.Describe(ch)
	ch <- m.PatchesApplied.Desc()
	ch <- m.InvalidMatched.Desc()
	ch <- m.GameDuration.Desc()
	ch <- m.LastRunTimestamp.Desc()
}
