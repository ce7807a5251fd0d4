package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics holds process-wide counters for manifest runs and ni lookups.
// Every Record function updates these and the Prometheus collectors.
type Metrics struct {
	// Run metrics
	Runs       atomic.Int64
	FailedRuns atomic.Int64

	// Traversal metrics
	FilesHashed atomic.Int64
	BytesHashed atomic.Int64
	DirsVisited atomic.Int64
	DirsPruned  atomic.Int64

	// Verification metrics
	VerifyMismatches atomic.Int64

	// Lookup metrics
	LookupsFound    atomic.Int64
	LookupsNotFound atomic.Int64
	LookupsStale    atomic.Int64

	startTime time.Time
}

// Global metrics instance
var global = &Metrics{startTime: time.Now()}

// Global returns the global metrics instance
func Global() *Metrics {
	return global
}

// StartTime returns the process start time
func StartTime() time.Time {
	return global.startTime
}

// RecordFile counts one hashed file of the given size.
func RecordFile(size int64) {
	global.FilesHashed.Add(1)
	global.BytesHashed.Add(size)
	if promMetrics == nil {
		return
	}
	promMetrics.filesHashed.Inc()
	promMetrics.bytesHashed.Add(float64(size))
	promMetrics.fileSize.Observe(float64(size))
}

// RecordDir counts one visited directory and the subdirectories pruned in it.
func RecordDir(pruned int) {
	global.DirsVisited.Add(1)
	global.DirsPruned.Add(int64(pruned))
	if promMetrics == nil {
		return
	}
	promMetrics.dirsVisited.Inc()
	promMetrics.dirsPruned.Add(float64(pruned))
}

// RecordRun records the outcome of a generate or verify run.
func RecordRun(command string, duration time.Duration, files int, success bool) {
	global.Runs.Add(1)
	if !success {
		global.FailedRuns.Add(1)
	}
	if promMetrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	promMetrics.runsTotal.WithLabelValues(command, status).Inc()
	promMetrics.runDuration.WithLabelValues(command).Observe(duration.Seconds())
	if success {
		promMetrics.lastRunFiles.WithLabelValues(command).Set(float64(files))
		promMetrics.lastSuccess.WithLabelValues(command).SetToCurrentTime()
	}
}

// RecordVerifyResult counts one verification result by status.
func RecordVerifyResult(status string) {
	if status != "ok" {
		global.VerifyMismatches.Add(1)
	}
	if promMetrics == nil {
		return
	}
	promMetrics.verifyResults.WithLabelValues(status).Inc()
}

// RecordLookup counts one ni lookup by result: "found", "not_found" or "stale".
func RecordLookup(result string) {
	switch result {
	case "found":
		global.LookupsFound.Add(1)
	case "not_found":
		global.LookupsNotFound.Add(1)
	case "stale":
		global.LookupsStale.Add(1)
	}
	if promMetrics == nil {
		return
	}
	promMetrics.lookupsTotal.WithLabelValues(result).Inc()
}

// Snapshot returns the counters as a flat map.
func (m *Metrics) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds":    int64(time.Since(m.startTime).Seconds()),
		"runs":              m.Runs.Load(),
		"failed_runs":       m.FailedRuns.Load(),
		"files_hashed":      m.FilesHashed.Load(),
		"bytes_hashed":      m.BytesHashed.Load(),
		"dirs_visited":      m.DirsVisited.Load(),
		"dirs_pruned":       m.DirsPruned.Load(),
		"verify_mismatches": m.VerifyMismatches.Load(),
		"lookups": map[string]int64{
			"found":     m.LookupsFound.Load(),
			"not_found": m.LookupsNotFound.Load(),
			"stale":     m.LookupsStale.Load(),
		},
	}
}

// JSONHandler serves Snapshot as JSON.
func (m *Metrics) JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Snapshot())
	})
}
