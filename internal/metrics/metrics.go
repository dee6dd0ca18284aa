// Package metrics provides Prometheus metrics for the ingest benchmark.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the benchmark harness.
type Metrics struct {
	// Workload metrics
	WorkloadsRun *prometheus.CounterVec
	RowsLoaded   *prometheus.GaugeVec
	WallSeconds  *prometheus.GaugeVec
	PeakMemoryMB *prometheus.GaugeVec

	// Checkpoint metrics
	CheckpointPct  *prometheus.GaugeVec
	CheckpointRows *prometheus.GaugeVec

	// Fetch metrics
	DownloadedBytes prometheus.Counter
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // e.g. ":9090"
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ingestbench"
	}

	m := &Metrics{
		WorkloadsRun: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workloads_run_total",
				Help:      "Total number of workload runs by outcome",
			},
			[]string{"workload", "status"},
		),
		RowsLoaded: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rows_loaded",
				Help:      "Rows loaded by the last run of each workload",
			},
			[]string{"workload"},
		),
		WallSeconds: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "wall_time_seconds",
				Help:      "Wall time of the last run of each workload",
			},
			[]string{"workload"},
		),
		PeakMemoryMB: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "peak_memory_mb",
				Help:      "Peak resident memory observed during the last run",
			},
			[]string{"workload"},
		),
		CheckpointPct: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "checkpoint_pct_complete",
				Help:      "Progress percentage from the latest checkpoint",
			},
			[]string{"workload"},
		),
		CheckpointRows: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "checkpoint_rows_loaded",
				Help:      "Rows loaded per the latest checkpoint",
			},
			[]string{"workload"},
		),
		DownloadedBytes: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloaded_bytes_total",
				Help:      "Total artifact bytes downloaded",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance.
// Returns nil if Init has not been called.
func Get() *Metrics {
	return defaultMetrics
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}

// IncWorkloadsRun increments the run counter for a workload outcome.
func (m *Metrics) IncWorkloadsRun(workload, status string) {
	m.WorkloadsRun.WithLabelValues(workload, status).Inc()
}

// SetRowsLoaded records the row count of a completed run.
func (m *Metrics) SetRowsLoaded(workload string, rows float64) {
	m.RowsLoaded.WithLabelValues(workload).Set(rows)
}

// SetWallSeconds records the wall time of a completed run.
func (m *Metrics) SetWallSeconds(workload string, seconds float64) {
	m.WallSeconds.WithLabelValues(workload).Set(seconds)
}

// SetPeakMemoryMB records the peak resident memory of a completed run.
func (m *Metrics) SetPeakMemoryMB(workload string, mb float64) {
	m.PeakMemoryMB.WithLabelValues(workload).Set(mb)
}

// SetCheckpoint records the latest checkpoint progress.
func (m *Metrics) SetCheckpoint(workload string, rows, pct float64) {
	m.CheckpointRows.WithLabelValues(workload).Set(rows)
	m.CheckpointPct.WithLabelValues(workload).Set(pct)
}

// AddDownloadedBytes adds to the download byte counter.
func (m *Metrics) AddDownloadedBytes(n float64) {
	m.DownloadedBytes.Add(n)
}
