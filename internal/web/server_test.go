package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aprScope/internal/dashboard"
	"aprScope/internal/health"
	"aprScope/internal/model"
)

var testPairs = []dashboard.PairOption{
	{Address: "0xaaa", Name: "AAA/WETH"},
	{Address: "0xbbb", Name: "BBB/WETH"},
}

type fakeDashboard struct {
	mu        sync.Mutex
	sel       dashboard.Selection
	points    []model.APRDataPoint
	loading   bool
	err       error
	refetches int
}

func newFakeDashboard(points []model.APRDataPoint) *fakeDashboard {
	return &fakeDashboard{
		sel:    dashboard.Selection{Pair: testPairs[0], Window: model.Window24h},
		points: points,
	}
}

func (d *fakeDashboard) Snapshot() dashboard.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := dashboard.Snapshot{Selection: d.sel, Pairs: testPairs}
	snap.APR.Data = d.points
	snap.APR.Loading = d.loading
	snap.APR.Err = d.err
	snap.Pair.Data = &model.PairSnapshot{PairAddress: d.sel.Pair.Address, ReserveUSD: 2500000, VolumeUSD: 1200, Token0Symbol: "AAA", Token1Symbol: "WETH", Timestamp: "2024-03-05T14:07:00Z"}
	snap.Model = dashboard.Derive(d.sel.Window, d.points, d.loading, d.err, time.UTC)
	return snap
}

func (d *fakeDashboard) SelectPair(address string) error {
	return d.Select(address, d.Snapshot().Selection.Window)
}

func (d *fakeDashboard) SelectWindow(w model.Window) error {
	return d.Select(d.Snapshot().Selection.Pair.Address, w)
}

func (d *fakeDashboard) Select(address string, w model.Window) error {
	var pair *dashboard.PairOption
	for i := range testPairs {
		if testPairs[i].Address == address {
			pair = &testPairs[i]
		}
	}
	if pair == nil {
		return fmt.Errorf("%w: %s", dashboard.ErrUnknownPair, address)
	}
	if !w.Valid() {
		return fmt.Errorf("%w: %d", dashboard.ErrUnknownWindow, int(w))
	}
	d.mu.Lock()
	d.sel = dashboard.Selection{Pair: *pair, Window: w}
	d.mu.Unlock()
	return nil
}

func (d *fakeDashboard) Refetch() {
	d.mu.Lock()
	d.refetches++
	d.mu.Unlock()
}

type fakeHealth struct {
	state health.State
}

func (h fakeHealth) State() health.State { return h.state }
func (h fakeHealth) IsHealthy() bool { return h.state.Data.Healthy() }

func samplePoints() []model.APRDataPoint {
	fees := 120.0
	reserve := 2500000.0
	return []model.APRDataPoint{
		{Timestamp: "2024-03-05T12:00:00Z", APR: 40, WindowHours: 24, FeesUSD: &fees, ReserveUSD: &reserve},
		{Timestamp: "2024-03-05T13:00:00Z", APR: 45.5, WindowHours: 24},
	}
}

func newTestServer(d Dashboard, opts ...func(*Options)) http.Handler {
	o := Options{View: d, Location: time.UTC}
	for _, fn := range opts {
		fn(&o)
	}
	return NewServer(o)
}

func do(t *testing.T, h http.Handler, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// pageText returns the response body with HTML entities decoded.
func pageText(w *httptest.ResponseRecorder) string {
	return html.UnescapeString(w.Body.String())
}

func TestRootRedirectsToDashboard(t *testing.T) {
	h := newTestServer(newFakeDashboard(nil))
	w := do(t, h, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestDashboardPageReady(t *testing.T) {
	d := newFakeDashboard(samplePoints())
	h := newTestServer(d, func(o *Options) {
		o.Health = fakeHealth{state: health.State{Data: &model.HealthStatus{Status: "OK", Database: "connected", API: "working"}}}
	})

	w := do(t, h, http.MethodGet, "/dashboard", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "&#43;13.75%")
	body := pageText(w)
	require.Contains(t, body, "APR Analysis Dashboard")
	require.Contains(t, body, "Window: 24h moving average | Data points: 2")
	require.Contains(t, body, "45.50%")
	require.Contains(t, body, "+13.75%")
	require.Contains(t, body, "AAA/WETH")
	require.Contains(t, body, "/dashboard/chart.png")
	require.Contains(t, body, "$2.5M")
	require.NotContains(t, body, "Loading APR data...")
}

func TestDashboardPageStates(t *testing.T) {
	empty := newFakeDashboard(nil)
	w := do(t, newTestServer(empty), http.MethodGet, "/dashboard", "", "")
	require.Contains(t, pageText(w), dashboard.EmptyMessage)

	loading := newFakeDashboard(nil)
	loading.loading = true
	w = do(t, newTestServer(loading), http.MethodGet, "/dashboard", "", "")
	require.Contains(t, pageText(w), "Loading APR data...")

	failed := newFakeDashboard(nil)
	failed.err = errors.New("APR API request failed: 500")
	w = do(t, newTestServer(failed), http.MethodGet, "/dashboard", "", "")
	body := pageText(w)
	require.Contains(t, body, "Error loading data:")
	require.Contains(t, body, "APR API request failed: 500")
	require.Contains(t, body, "Try Again")
}

func TestSelectForm(t *testing.T) {
	d := newFakeDashboard(samplePoints())
	h := newTestServer(d)

	form := url.Values{"pair": {"0xbbb"}, "window": {"12"}}
	w := do(t, h, http.MethodPost, "/dashboard/select", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, dashboard.Selection{Pair: testPairs[1], Window: model.Window12h}, d.Snapshot().Selection)

	form = url.Values{"window": {"1"}}
	w = do(t, h, http.MethodPost, "/dashboard/select", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, dashboard.Selection{Pair: testPairs[1], Window: model.Window1h}, d.Snapshot().Selection)

	form = url.Values{"window": {"6"}}
	w = do(t, h, http.MethodPost, "/dashboard/select", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusBadRequest, w.Code)

	form = url.Values{"pair": {"0xccc"}}
	w = do(t, h, http.MethodPost, "/dashboard/select", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, model.Window1h, d.Snapshot().Selection.Window)
}

func TestRefetchForm(t *testing.T) {
	d := newFakeDashboard(nil)
	w := do(t, newTestServer(d), http.MethodPost, "/dashboard/refetch", "", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, 1, d.refetches)
}

func TestChartImage(t *testing.T) {
	w := do(t, newTestServer(newFakeDashboard(samplePoints())), http.MethodGet, "/dashboard/chart.png", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(t, newTestServer(newFakeDashboard(nil)), http.MethodGet, "/dashboard/chart.png", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardAPI(t *testing.T) {
	d := newFakeDashboard(samplePoints())
	h := newTestServer(d)

	w := do(t, h, http.MethodGet, "/api/v1/dashboard", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body dashboardBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, dashboard.StatusReady, body.Model.Status)
	require.Len(t, body.Model.Cards, 4)
	require.Equal(t, "Window: 24h moving average | Data points: 2", body.Summary)
	require.Equal(t, "0xaaa", body.Pair.PairAddress)

	w = do(t, h, http.MethodPut, "/api/v1/dashboard/selection", `{"window":12}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, model.Window12h, body.Selection.Window)
	require.Equal(t, "0xaaa", body.Selection.Pair.Address)

	w = do(t, h, http.MethodPut, "/api/v1/dashboard/selection", `{"pair":"0xccc"}`, "application/json")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/dashboard/refetch", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, d.refetches)
}

func TestHealthAPI(t *testing.T) {
	h := newTestServer(newFakeDashboard(nil), func(o *Options) {
		o.Health = fakeHealth{state: health.State{Err: errors.New("Health check failed: 503")}}
	})
	w := do(t, h, http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Healthy bool   `json:"healthy"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Healthy)
	require.Equal(t, "Health check failed: 503", body.Error)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("aprscope_up 1\n"))
	})
	h := newTestServer(newFakeDashboard(nil), func(o *Options) { o.Metrics = metrics })
	w := do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "aprscope_up 1")
}
