package observability

import (
	"io"
	"os"
	"path/filepath"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := NewMetrics("")
	m.ObserveRequest("pair_apr", "ok", 20*time.Millisecond)
	m.ObserveRequest("pair_apr", "ok", 30*time.Millisecond)
	m.ObserveRequest("pair_apr", "http_error", time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("pair_apr", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("pair_apr", "http_error")))
}

func TestSetBackendHealthy(t *testing.T) {
	m := NewMetrics("")
	m.SetBackendHealthy(true)
	require.Equal(t, 1.0, testutil.ToFloat64(m.BackendHealthy))
	m.SetBackendHealthy(false)
	require.Equal(t, 0.0, testutil.ToFloat64(m.BackendHealthy))
	require.Greater(t, testutil.ToFloat64(m.LastHealthCheck), 0.0)
}

func TestMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")
	a.RecordStored("jsonl", 3)
	require.Equal(t, 3.0, testutil.ToFloat64(a.ArchivePointsStored.WithLabelValues("jsonl")))
	require.Equal(t, 0.0, testutil.ToFloat64(b.ArchivePointsStored.WithLabelValues("jsonl")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics("")
	m.RecordRun("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `aprscope_archive_runs_total{status="ok"} 1`))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("")
	m.RecordStored("postgres", 4)

	path := filepath.Join(t.TempDir(), "aprscope.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `aprscope_archive_points_stored_total{sink="postgres"} 4`)
}
