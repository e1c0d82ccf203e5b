package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aprScope/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveRequest(endpoint, outcome string, _ time.Duration) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, endpoint+":"+outcome)
	r.mu.Unlock()
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestAPRSeriesSuccess(t *testing.T) {
	var gotPath, gotQuery string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":[{"timestamp":"2024-01-01T00:00:00Z","apr":12.5,"windowHours":1,"feesUSD":10}],"message":"ok"}`)
	})

	observer := &recordingObserver{}
	client := NewClient(server.URL, WithObserver(observer))
	points, err := client.APRSeries(context.Background(), "0xpair", model.Window1h)
	if err != nil {
		t.Fatalf("APRSeries: %v", err)
	}

	if gotPath != "/api/pairs/0xpair/apr" || gotQuery != "window=1" {
		t.Fatalf("request mismatch: %s?%s", gotPath, gotQuery)
	}
	if len(points) != 1 || points[0].APR != 12.5 || points[0].FeesUSD == nil || *points[0].FeesUSD != 10 {
		t.Fatalf("points mismatch: %+v", points)
	}
	if len(observer.outcomes) != 1 || observer.outcomes[0] != "pair_apr:ok" {
		t.Fatalf("outcomes mismatch: %v", observer.outcomes)
	}
}

func TestAPRSeriesEmptyData(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":null}`)
	})

	points, err := NewClient(server.URL).APRSeries(context.Background(), "0xpair", model.Window24h)
	if err != nil {
		t.Fatalf("APRSeries: %v", err)
	}
	if points == nil || len(points) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", points)
	}
}

func TestStatusErrorEmbedsCode(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := NewClient(server.URL).LatestSnapshot(context.Background(), "0xpair")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if err.Error() != "HTTP error! status: 502" {
		t.Fatalf("message = %q", err.Error())
	}
	if Outcome(err) != "http_error" {
		t.Fatalf("outcome = %q", Outcome(err))
	}
}

func TestUnsuccessfulBodyIsError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"data":[],"message":"pair not tracked"}`)
	})

	_, err := NewClient(server.URL).APRSeries(context.Background(), "0xpair", model.Window24h)
	if !errors.Is(err, ErrUnsuccessful) {
		t.Fatalf("expected ErrUnsuccessful, got %v", err)
	}
	if err.Error() != "API returned unsuccessful response" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestMalformedBodyIsDecodeError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":tru`)
	})

	_, _, err := NewClient(server.URL).History(context.Background(), HistoryQuery{Address: "0xpair"})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestTransportError(t *testing.T) {
	client := NewClient("http://backend.invalid", WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: lookup backend.invalid: no such host")
		}),
	}))

	_, err := client.Health(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !strings.Contains(err.Error(), "no such host") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestHealthStatusPrefix(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewClient(server.URL).Health(context.Background())
	if err == nil || err.Error() != "Health check failed: 503" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHealthDecodesDocument(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"status":"OK","timestamp":"2024-01-01T00:00:00Z","service":"itb","version":"1.0.0","database":"connected","api":"working"}`)
	})

	status, err := NewClient(server.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !status.Healthy() || status.Version != "1.0.0" {
		t.Fatalf("status mismatch: %+v", status)
	}
}

func TestHistorySendsOnlySetParams(t *testing.T) {
	var gotQuery string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{"success":true,"data":[{"pairAddress":"0xpair","timestamp":"2024-01-01T00:00:00Z","reserveUSD":5,"volumeUSD":6}],"meta":{"total":1,"limit":10,"endDate":"2024-02-01"}}`)
	})

	snapshots, meta, err := NewClient(server.URL).History(context.Background(), HistoryQuery{Address: "0xpair", EndDate: "2024-02-01", Limit: 10})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if gotQuery != "endDate=2024-02-01&limit=10" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(snapshots) != 1 || snapshots[0].ReserveUSD != 5 {
		t.Fatalf("snapshots mismatch: %+v", snapshots)
	}
	if meta == nil || meta.Total != 1 || meta.Limit != 10 || meta.EndDate != "2024-02-01" {
		t.Fatalf("meta mismatch: %+v", meta)
	}
}
