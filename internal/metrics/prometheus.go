package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics wraps prometheus collectors for nimap metrics
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// Counters
	filesHashed   prometheus.Counter
	bytesHashed   prometheus.Counter
	dirsVisited   prometheus.Counter
	dirsPruned    prometheus.Counter
	runsTotal     *prometheus.CounterVec
	verifyResults *prometheus.CounterVec
	lookupsTotal  *prometheus.CounterVec

	// Histograms
	runDuration *prometheus.HistogramVec
	fileSize    prometheus.Histogram

	// Gauges
	uptime       prometheus.GaugeFunc
	lastRunFiles *prometheus.GaugeVec
	lastSuccess  *prometheus.GaugeVec
}

// Default buckets for run duration (in seconds)
var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}

var promMetrics *PrometheusMetrics

// InitPrometheus initializes the Prometheus metrics subsystem. withRuntime
// adds the Go and process collectors, which only make sense for a
// long-running server.
func InitPrometheus(namespace string, buckets []float64, withRuntime bool) {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	registry := prometheus.NewRegistry()
	if withRuntime {
		registry.MustRegister(prometheus.NewGoCollector())
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}

	pm := &PrometheusMetrics{
		registry: registry,

		filesHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_hashed_total",
			Help:      "Total number of files hashed into a manifest",
		}),
		bytesHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_hashed_total",
			Help:      "Total number of content bytes hashed",
		}),
		dirsVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directories_visited_total",
			Help:      "Total number of directories listed",
		}),
		dirsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directories_pruned_total",
			Help:      "Total number of excluded directories not descended into",
		}),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of runs by command and status",
			},
			[]string{"command", "status"},
		),
		verifyResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verify_results_total",
				Help:      "Verification results by status",
			},
			[]string{"status"},
		),
		lookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "ni lookups served by result",
			},
			[]string{"result"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Run duration in seconds",
				Buckets:   buckets,
			},
			[]string{"command"},
		),
		fileSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_size_bytes",
			Help:      "Size of hashed files",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}),

		lastRunFiles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_files",
				Help:      "Number of files in the last successful run",
			},
			[]string{"command"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
			[]string{"command"},
		),
	}

	pm.uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since the process started",
		},
		func() float64 {
			return time.Since(StartTime()).Seconds()
		},
	)

	registry.MustRegister(
		pm.filesHashed,
		pm.bytesHashed,
		pm.dirsVisited,
		pm.dirsPruned,
		pm.runsTotal,
		pm.verifyResults,
		pm.lookupsTotal,
		pm.runDuration,
		pm.fileSize,
		pm.uptime,
		pm.lastRunFiles,
		pm.lastSuccess,
	)

	promMetrics = pm
}

// WriteTextfile writes the current metrics in the text exposition format to
// path, for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if promMetrics == nil {
		return fmt.Errorf("prometheus metrics not initialized")
	}
	return prometheus.WriteToTextfile(path, promMetrics.registry)
}

// PrometheusHandler returns an HTTP handler for Prometheus metrics scraping
func PrometheusHandler() http.Handler {
	if promMetrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("prometheus metrics not initialized"))
		})
	}
	return promhttp.HandlerFor(promMetrics.registry, promhttp.HandlerOpts{})
}
