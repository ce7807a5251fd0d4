package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_UpdatesPrometheus(t *testing.T) {
	InitPrometheus("nimap_test", nil, false)
	defer func() { promMetrics = nil }()

	files := global.FilesHashed.Load()
	RecordFile(10)
	RecordFile(5)
	RecordDir(2)
	RecordRun("generate", 20*time.Millisecond, 2, true)
	RecordLookup("found")
	RecordVerifyResult("modified")

	assert.Equal(t, files+2, global.FilesHashed.Load())
	assert.Equal(t, float64(2), testutil.ToFloat64(promMetrics.filesHashed))
	assert.Equal(t, float64(15), testutil.ToFloat64(promMetrics.bytesHashed))
	assert.Equal(t, float64(2), testutil.ToFloat64(promMetrics.dirsPruned))
	assert.Equal(t, float64(1), testutil.ToFloat64(promMetrics.runsTotal.WithLabelValues("generate", "success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(promMetrics.lastRunFiles.WithLabelValues("generate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(promMetrics.lookupsTotal.WithLabelValues("found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(promMetrics.verifyResults.WithLabelValues("modified")))
}

func TestRecord_WithoutPrometheus(t *testing.T) {
	promMetrics = nil
	before := global.DirsVisited.Load()
	RecordDir(0)
	RecordRun("verify", time.Second, 0, false)
	assert.Equal(t, before+1, global.DirsVisited.Load())
	assert.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	InitPrometheus("nimap_tf", nil, false)
	defer func() { promMetrics = nil }()
	RecordFile(3)

	path := filepath.Join(t.TempDir(), "nimap.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nimap_tf_files_hashed_total 1")
}

func TestPrometheusHandler(t *testing.T) {
	promMetrics = nil
	rec := httptest.NewRecorder()
	PrometheusHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 503, rec.Code)

	InitPrometheus("nimap_h", nil, true)
	defer func() { promMetrics = nil }()
	rec = httptest.NewRecorder()
	PrometheusHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "nimap_h_uptime_seconds"))
}

func TestSnapshotHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Global().JSONHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/stats", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"files_hashed"`)
}
