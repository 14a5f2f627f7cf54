// Package metrics counts what a run did, for export to the node-exporter
// textfile collector.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/errors"
)

// Metrics holds one run's counters on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Queries       *prometheus.CounterVec
	QuerySeconds  *prometheus.HistogramVec
	Segments      *prometheus.CounterVec
	DroppedItems  prometheus.Counter
	Ambiguous     prometheus.Counter
	ClonedItems   prometheus.Counter
	Items         prometheus.Gauge
	LastRunTime   prometheus.Gauge
	LastRunFailed prometheus.Gauge
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chronicle_queries_total",
				Help: "Statement and item-generating queries by answer source",
			},
			[]string{"stage", "source"},
		),
		QuerySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chronicle_query_duration_seconds",
				Help:    "Network query duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		Segments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chronicle_segments_total",
				Help: "Emitted timeline segments by class",
			},
			[]string{"class"},
		),
		DroppedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chronicle_dropped_items_total",
			Help: "Items dropped for lack of temporal data",
		}),
		Ambiguous: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chronicle_ambiguous_statements_total",
			Help: "Entities whose best statements tied",
		}),
		ClonedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chronicle_cloned_items_total",
			Help: "Items cloned for additional equally ranked values",
		}),
		Items: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chronicle_items",
			Help: "Items in the last run after expansion",
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chronicle_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		LastRunFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chronicle_last_run_failed",
			Help: "1 if the last run ended with an error",
		}),
	}
	m.registry.MustRegister(
		m.Queries, m.QuerySeconds, m.Segments,
		m.DroppedItems, m.Ambiguous, m.ClonedItems,
		m.Items, m.LastRunTime, m.LastRunFailed,
	)
	return m
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Finish records the end of a run
func (m *Metrics) Finish(err error) {
	m.LastRunTime.SetToCurrentTime()
	if err != nil {
		m.LastRunFailed.Set(1)
	} else {
		m.LastRunFailed.Set(0)
	}
}

// WriteTextfile writes every metric in the text exposition format. The
// file is replaced atomically, as the textfile collector requires.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create metrics directory for %s", path)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
