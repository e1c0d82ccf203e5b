// Package health polls the backend health endpoint on a fixed interval.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"aprScope/internal/model"
	"aprScope/internal/query"
)

// DefaultInterval is the polling period between health checks.
const DefaultInterval = 30 * time.Second

// Checker fetches the backend health document.
type Checker interface {
	Health(ctx context.Context) (*model.HealthStatus, error)
}

// Reporter records the outcome of each check.
type Reporter interface {
	SetBackendHealthy(healthy bool)
}

type State = query.State[*model.HealthStatus, struct{}]

// Monitor runs health checks until stopped. Start and Stop scope the polling goroutine.
type Monitor struct {
	checker  Checker
	interval time.Duration
	logger   *zap.Logger
	reporter Reporter

	mu     sync.Mutex
	q      *query.Query[struct{}, *model.HealthStatus, struct{}]
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Monitor)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithReporter(r Reporter) Option {
	return func(m *Monitor) {
		m.reporter = r
	}
}

func NewMonitor(checker Checker, opts ...Option) *Monitor {
	m := &Monitor{
		checker:  checker,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start checks immediately and then on every interval until Stop or ctx cancellation.
// Calling Start on a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.q = query.New(runCtx, "health", m.check, query.Options[struct{}]{Logger: m.logger})
	m.q.SetParams(struct{}{})

	go m.loop(runCtx, m.q, m.done)
}

// Stop cancels polling and waits for the in-flight check to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done, q := m.cancel, m.done, m.q
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	q.Close()
}

// State returns the latest check state. Before Start it reports loading.
func (m *Monitor) State() State {
	m.mu.Lock()
	q := m.q
	m.mu.Unlock()
	if q == nil {
		return State{Loading: true}
	}
	return q.State()
}

// IsHealthy reports whether the last completed check returned a healthy document.
func (m *Monitor) IsHealthy() bool {
	return m.State().Data.Healthy()
}

// Wait blocks until the current check settles.
func (m *Monitor) Wait(ctx context.Context) (State, error) {
	m.mu.Lock()
	q := m.q
	m.mu.Unlock()
	if q == nil {
		<-ctx.Done()
		return State{Loading: true}, ctx.Err()
	}
	return q.Wait(ctx)
}

// Refetch runs a check now without resetting the interval.
func (m *Monitor) Refetch() {
	m.mu.Lock()
	q := m.q
	m.mu.Unlock()
	if q != nil {
		q.Refetch()
	}
}

func (m *Monitor) loop(ctx context.Context, q *query.Query[struct{}, *model.HealthStatus, struct{}], done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Refetch()
		}
	}
}

func (m *Monitor) check(ctx context.Context, _ struct{}) (*model.HealthStatus, *struct{}, error) {
	status, err := m.checker.Health(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("health check failed", zap.Error(err))
			m.report(false)
		}
		return nil, nil, err
	}

	healthy := status.Healthy()
	m.logger.Debug("health check",
		zap.String("status", status.Status),
		zap.String("database", status.Database),
		zap.String("api", status.API),
		zap.Bool("healthy", healthy),
	)
	m.report(healthy)
	return status, nil, nil
}

func (m *Monitor) report(healthy bool) {
	if m.reporter != nil {
		m.reporter.SetBackendHealthy(healthy)
	}
}
