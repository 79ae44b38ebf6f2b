package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	DecodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classdep_decode_seconds",
		Help:    "Time spent decoding a single artifact.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classdep_scan_seconds",
		Help:    "Wall time of a whole scan, or of one module's share of it.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	FilesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classdep_files_scanned_total",
		Help: "Total number of artifacts decoded, by kind.",
	}, []string{"kind"})

	ScanFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdep_scan_failures_total",
		Help: "Total number of scans aborted by a fatal error.",
	})

	GraphClasses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classdep_graph_classes_total",
		Help: "Number of located classes in the dependency graph.",
	})

	GraphSources = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classdep_graph_sources_total",
		Help: "Number of dependency sources in the graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classdep_graph_edges_total",
		Help: "Number of class-level reference edges in the graph.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdep_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RescansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdep_rescans_total",
		Help: "Total number of incremental rescans applied in watch mode.",
	})

	RuleViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classdep_rule_violations",
		Help: "Boundary rule violations found by the most recent evaluation.",
	})

	HistoryWriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "classdep_history_write_seconds",
		Help:    "Latency for persisting a scan snapshot.",
		Buckets: prometheus.DefBuckets,
	})
)
