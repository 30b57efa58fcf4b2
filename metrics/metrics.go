// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package metrics records parse and export activity as Prometheus metrics.
//
// A Collector owns a private registry, so a CLI run can write its metrics
// to a node exporter textfile without touching the default registry.
package metrics

import (
	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/parsers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "covrpt"

type Collector struct {
	registry *prometheus.Registry

	ParsesTotal     *prometheus.CounterVec
	RecordsTotal    *prometheus.CounterVec
	LinesSkipped    *prometheus.CounterVec
	ParseDuration   *prometheus.HistogramVec
	Throughput      *prometheus.GaugeVec
	ArenaBytes      *prometheus.GaugeVec
	ExportsTotal    *prometheus.CounterVec
	OverallScore    prometheus.Gauge
	DatabaseRecords *prometheus.GaugeVec
}

// New returns a Collector with its metrics registered in a new registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		ParsesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "runs_total",
			Help:      "Number of report files parsed, by kind and result code",
		}, []string{"kind", "result"}),
		RecordsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "records_total",
			Help:      "Records loaded from report files",
		}, []string{"kind"}),
		LinesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "lines_skipped_total",
			Help:      "Lines that were not recognized as records",
		}, []string{"kind"}),
		ParseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "duration_seconds",
			Help:      "Time spent parsing one report file",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		}, []string{"kind"}),
		Throughput: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "throughput_mbps",
			Help:      "Throughput of the last parse, in MB/s",
		}, []string{"kind"}),
		ArenaBytes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "arena_bytes",
			Help:      "Bytes handed out by the worker arenas during the last parse",
		}, []string{"kind"}),
		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Number of exports, by format and result code",
		}, []string{"format", "result"}),
		OverallScore: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_score_percent",
			Help:      "Overall group coverage of the database",
		}),
		DatabaseRecords: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_records",
			Help:      "Records held by the database, by collection",
		}, []string{"collection"}),
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveParse records the outcome of one parse.
func (c *Collector) ObserveParse(kind parsers.Kind, stats parsers.Stats, err error) {
	k := kind.String()
	c.ParsesTotal.WithLabelValues(k, model.Code(err).String()).Inc()
	if err != nil {
		return
	}
	c.RecordsTotal.WithLabelValues(k).Add(float64(stats.Records))
	c.LinesSkipped.WithLabelValues(k).Add(float64(stats.LinesSkipped))
	c.ParseDuration.WithLabelValues(k).Observe(stats.Duration.Seconds())
	c.Throughput.WithLabelValues(k).Set(stats.ThroughputMBps)
	c.ArenaBytes.WithLabelValues(k).Set(float64(stats.BytesAllocated))
}

// ObserveExport records the outcome of one export.
func (c *Collector) ObserveExport(format string, err error) {
	c.ExportsTotal.WithLabelValues(format, model.Code(err).String()).Inc()
}

// ObserveDatabase records the size and score of db.
func (c *Collector) ObserveDatabase(db *model.CoverageDatabase) {
	c.OverallScore.Set(db.CalculateOverallScore())
	c.DatabaseRecords.WithLabelValues("groups").Set(float64(db.NumGroups()))
	c.DatabaseRecords.WithLabelValues("hierarchy").Set(float64(db.NumHierarchy()))
	c.DatabaseRecords.WithLabelValues("modules").Set(float64(db.NumModules()))
	c.DatabaseRecords.WithLabelValues("asserts").Set(float64(db.NumAsserts()))
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
