package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aprScope/internal/model"
)

type fakeChecker struct {
	calls  atomic.Int32
	status *model.HealthStatus
	err    error
}

func (f *fakeChecker) Health(ctx context.Context) (*model.HealthStatus, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	s := *f.status
	return &s, nil
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []bool
}

func (r *fakeReporter) SetBackendHealthy(healthy bool) {
	r.mu.Lock()
	r.reports = append(r.reports, healthy)
	r.mu.Unlock()
}

func (r *fakeReporter) last() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reports) == 0 {
		return false, false
	}
	return r.reports[len(r.reports)-1], true
}

func waitState(t *testing.T, m *Monitor) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := m.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	return s
}

func TestMonitorHealthy(t *testing.T) {
	checker := &fakeChecker{status: &model.HealthStatus{Status: "OK", Database: "connected", API: "working"}}
	reporter := &fakeReporter{}
	m := NewMonitor(checker, WithReporter(reporter), WithInterval(time.Hour))

	if m.IsHealthy() {
		t.Fatalf("monitor must not be healthy before the first check")
	}

	m.Start(context.Background())
	defer m.Stop()

	s := waitState(t, m)
	if s.Err != nil || s.Loading {
		t.Fatalf("unexpected state: %+v", s)
	}
	if !m.IsHealthy() {
		t.Fatalf("expected healthy")
	}
	if got, ok := reporter.last(); !ok || !got {
		t.Fatalf("expected healthy report, got %v (reported=%v)", got, ok)
	}
}

func TestMonitorFieldMismatch(t *testing.T) {
	checker := &fakeChecker{status: &model.HealthStatus{Status: "OK", Database: "disconnected", API: "working"}}
	m := NewMonitor(checker, WithInterval(time.Hour))
	m.Start(context.Background())
	defer m.Stop()

	waitState(t, m)
	if m.IsHealthy() {
		t.Fatalf("expected unhealthy")
	}
}

func TestMonitorFailureClearsHealth(t *testing.T) {
	checker := &fakeChecker{err: errors.New("Health check failed: 503")}
	reporter := &fakeReporter{}
	m := NewMonitor(checker, WithReporter(reporter), WithInterval(time.Hour))
	m.Start(context.Background())
	defer m.Stop()

	s := waitState(t, m)
	if s.Data != nil {
		t.Fatalf("health must be nil after failure, got %+v", s.Data)
	}
	if s.ErrorMessage() != "Health check failed: 503" {
		t.Fatalf("unexpected error: %q", s.ErrorMessage())
	}
	if got, ok := reporter.last(); !ok || got {
		t.Fatalf("expected unhealthy report")
	}
}

func TestMonitorPollsOnInterval(t *testing.T) {
	checker := &fakeChecker{status: &model.HealthStatus{Status: "OK", Database: "connected", API: "working"}}
	m := NewMonitor(checker, WithInterval(10*time.Millisecond))
	m.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for checker.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated checks, got %d", checker.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.Stop()
	stopped := checker.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := checker.calls.Load(); got != stopped {
		t.Fatalf("checks continued after Stop: %d -> %d", stopped, got)
	}
	m.Stop()
}
