// Package query keeps the state of one parameterized backend request: loading, data or error.
//
// A Query re-issues its request whenever its parameters change or Refetch is called. Only the result of
// the most recently issued request is ever applied; superseded requests are cancelled and their results
// dropped.
package query

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("query closed")

// Fetcher loads data and optional meta for params.
type Fetcher[P comparable, T any, M any] func(ctx context.Context, params P) (T, *M, error)

// State is an immutable view of a query.
type State[T any, M any] struct {
	Data       T
	Meta       *M
	Loading    bool
	Err        error
	Generation uint64
}

// ErrorMessage returns the error text, or "" when there is no error.
func (s State[T, M]) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Options configures a Query.
type Options[P comparable] struct {
	// Enabled gates requests; params it rejects are stored but never fetched.
	Enabled func(P) bool
	Logger  *zap.Logger
}

// Query owns a single request lifecycle.
type Query[P comparable, T any, M any] struct {
	name    string
	fetch   Fetcher[P, T, M]
	enabled func(P) bool
	logger  *zap.Logger

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu            sync.Mutex
	params        P
	hasParams     bool
	state         State[T, M]
	generation    uint64
	cancel        context.CancelFunc
	settled       chan struct{}
	settledClosed bool
	subs          map[int64]chan State[T, M]
	nextSub       int64
	closed        bool
}

// New creates a query in its initial loading state. Nothing is fetched until SetParams is called.
func New[P comparable, T any, M any](ctx context.Context, name string, fetch Fetcher[P, T, M], opts Options[P]) *Query[P, T, M] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	qctx, stop := context.WithCancel(ctx)
	return &Query[P, T, M]{
		name:    name,
		fetch:   fetch,
		enabled: opts.Enabled,
		logger:  logger.With(zap.String("query", name)),
		ctx:     qctx,
		stop:    stop,
		state:   State[T, M]{Loading: true},
		settled: make(chan struct{}),
		subs:    make(map[int64]chan State[T, M]),
	}
}

// SetParams stores params and, if they differ from the current ones and are enabled,
// resets the state to loading and issues a new request.
func (q *Query[P, T, M]) SetParams(params P) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || (q.hasParams && q.params == params) {
		return
	}
	q.params = params
	q.hasParams = true
	if !q.isEnabled(params) {
		q.logger.Debug("params disabled, request skipped")
		return
	}
	q.startLocked()
}

// Refetch re-issues the request with the current params.
func (q *Query[P, T, M]) Refetch() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || !q.hasParams || !q.isEnabled(q.params) {
		return
	}
	q.startLocked()
}

// Params returns the current params and whether any were set.
func (q *Query[P, T, M]) Params() (P, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.params, q.hasParams
}

// State returns the current state.
func (q *Query[P, T, M]) State() State[T, M] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Wait blocks until the latest request settles or ctx is done.
func (q *Query[P, T, M]) Wait(ctx context.Context) (State[T, M], error) {
	for {
		q.mu.Lock()
		if q.closed {
			s := q.state
			q.mu.Unlock()
			return s, ErrClosed
		}
		if !q.state.Loading {
			s := q.state
			q.mu.Unlock()
			return s, nil
		}
		ch := q.settled
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return q.State(), ctx.Err()
		}
	}
}

// Subscribe returns a channel that always holds the latest state, starting with the current one.
// Slow readers only miss intermediate states. Call the returned func to unsubscribe.
func (q *Query[P, T, M]) Subscribe() (<-chan State[T, M], func()) {
	ch := make(chan State[T, M], 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	q.nextSub++
	id := q.nextSub
	q.subs[id] = ch
	ch <- q.state
	q.mu.Unlock()

	return ch, func() {
		q.mu.Lock()
		if sub, ok := q.subs[id]; ok {
			delete(q.subs, id)
			close(sub)
		}
		q.mu.Unlock()
	}
}

// Close cancels the in-flight request, closes subscriptions and waits for the request goroutine to exit.
func (q *Query[P, T, M]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	for id, ch := range q.subs {
		delete(q.subs, id)
		close(ch)
	}
	if !q.settledClosed {
		close(q.settled)
		q.settledClosed = true
	}
	q.mu.Unlock()

	q.stop()
	q.wg.Wait()
}

func (q *Query[P, T, M]) isEnabled(params P) bool {
	if q.enabled == nil {
		return true
	}
	return q.enabled(params)
}

func (q *Query[P, T, M]) startLocked() {
	if q.cancel != nil {
		q.cancel()
	}
	q.generation++
	gen := q.generation

	reqCtx, cancel := context.WithCancel(q.ctx)
	q.cancel = cancel

	q.state.Loading = true
	q.state.Err = nil
	q.state.Generation = gen
	if q.settledClosed {
		q.settled = make(chan struct{})
		q.settledClosed = false
	}
	q.publishLocked()

	q.logger.Debug("request start", zap.Uint64("generation", gen))

	q.wg.Add(1)
	go q.run(reqCtx, cancel, gen, q.params)
}

func (q *Query[P, T, M]) run(ctx context.Context, cancel context.CancelFunc, gen uint64, params P) {
	defer q.wg.Done()
	defer cancel()

	data, meta, err := q.fetch(ctx, params)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || gen != q.generation {
		q.logger.Debug("stale result dropped", zap.Uint64("generation", gen), zap.Uint64("latest", q.generation))
		return
	}

	if err != nil {
		var zero T
		q.state.Data = zero
		q.state.Meta = nil
		q.state.Err = err
		q.logger.Debug("request failed", zap.Uint64("generation", gen), zap.Error(err))
	} else {
		q.state.Data = data
		q.state.Meta = meta
		q.state.Err = nil
		q.logger.Debug("request complete", zap.Uint64("generation", gen))
	}
	q.state.Loading = false
	q.cancel = nil
	close(q.settled)
	q.settledClosed = true
	q.publishLocked()
}

func (q *Query[P, T, M]) publishLocked() {
	for _, ch := range q.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- q.state:
		default:
		}
	}
}
