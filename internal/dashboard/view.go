// Package dashboard owns the dashboard selection and derives its view model from the APR and pair feeds.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"aprScope/internal/feed"
	"aprScope/internal/model"
)

var (
	ErrUnknownPair   = errors.New("unknown pair")
	ErrUnknownWindow = errors.New("unsupported window")
)

// Selection is the pair and window currently displayed.
type Selection struct {
	Pair   PairOption   `json:"pair"`
	Window model.Window `json:"window"`
}

// Snapshot is an immutable copy of the dashboard at one instant.
type Snapshot struct {
	Selection Selection
	Pairs     []PairOption
	APR       feed.APRState
	Pair      feed.PairState
	Model     Model
}

type viewConfig struct {
	pairs  []PairOption
	window model.Window
	loc    *time.Location
	logger *zap.Logger
}

type Option func(*viewConfig)

// WithPairs replaces DefaultPairs. The first pair is selected initially.
func WithPairs(pairs []PairOption) Option {
	return func(c *viewConfig) {
		if len(pairs) > 0 {
			c.pairs = append([]PairOption(nil), pairs...)
		}
	}
}

// WithWindow sets the initial window.
func WithWindow(w model.Window) Option {
	return func(c *viewConfig) {
		c.window = w
	}
}

// WithLocation sets the zone timestamps are displayed in.
func WithLocation(loc *time.Location) Option {
	return func(c *viewConfig) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *viewConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// View is the dashboard's selection state container. Selection changes drive the APR and pair
// queries; consumers read immutable Snapshots and may subscribe to change signals.
type View struct {
	pairs  []PairOption
	loc    *time.Location
	logger *zap.Logger

	apr  *feed.APRQuery
	pair *feed.PairQuery

	mu      sync.Mutex
	sel     Selection
	subs    map[int64]chan struct{}
	nextSub int64

	stop context.CancelFunc
	done chan struct{}
}

// NewView selects the first pair and the initial window and issues the first requests.
func NewView(ctx context.Context, src feed.Source, opts ...Option) (*View, error) {
	cfg := viewConfig{
		pairs:  DefaultPairs,
		window: model.DefaultWindow,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validatePairs(cfg.pairs); err != nil {
		return nil, fmt.Errorf("validate pairs: %w", err)
	}
	if !cfg.window.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWindow, int(cfg.window))
	}

	vctx, stop := context.WithCancel(ctx)
	v := &View{
		pairs:  cfg.pairs,
		loc:    cfg.loc,
		logger: cfg.logger,
		apr:    feed.NewAPRQuery(vctx, src, cfg.logger),
		pair:   feed.NewPairQuery(vctx, src, cfg.logger),
		sel:    Selection{Pair: cfg.pairs[0], Window: cfg.window},
		subs:   make(map[int64]chan struct{}),
		stop:   stop,
		done:   make(chan struct{}),
	}

	aprCh, unsubAPR := v.apr.Subscribe()
	pairCh, unsubPair := v.pair.Subscribe()
	go v.forward(vctx, aprCh, pairCh, func() {
		unsubAPR()
		unsubPair()
	})

	v.mu.Lock()
	v.applyLocked()
	v.mu.Unlock()
	return v, nil
}

// Pairs returns the selectable pairs.
func (v *View) Pairs() []PairOption {
	return append([]PairOption(nil), v.pairs...)
}

// Selection returns the current selection.
func (v *View) Selection() Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sel
}

// SelectPair switches the displayed pair.
func (v *View) SelectPair(address string) error {
	p, ok := findPair(v.pairs, address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPair, address)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sel.Pair = p
	v.applyLocked()
	return nil
}

// SelectWindow switches the moving-average window.
func (v *View) SelectWindow(w model.Window) error {
	if !w.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, int(w))
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sel.Window = w
	v.applyLocked()
	return nil
}

// Select switches pair and window together. Nothing changes if either is invalid.
func (v *View) Select(address string, w model.Window) error {
	p, ok := findPair(v.pairs, address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPair, address)
	}
	if !w.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, int(w))
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sel = Selection{Pair: p, Window: w}
	v.applyLocked()
	return nil
}

// Refetch re-issues the APR request for the current selection.
func (v *View) Refetch() {
	v.logger.Debug("refetch apr", zap.String("pair", v.Selection().Pair.Address))
	v.apr.Refetch()
}

// Snapshot returns the current selection, query states and derived model.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	sel := v.sel
	v.mu.Unlock()

	apr := v.apr.State()
	return Snapshot{
		Selection: sel,
		Pairs:     v.Pairs(),
		APR:       apr,
		Pair:      v.pair.State(),
		Model:     Derive(sel.Window, apr.Data, apr.Loading, apr.Err, v.loc),
	}
}

// Wait blocks until both queries have settled and returns the resulting snapshot.
func (v *View) Wait(ctx context.Context) (Snapshot, error) {
	if _, err := v.apr.Wait(ctx); err != nil {
		return v.Snapshot(), err
	}
	if _, err := v.pair.Wait(ctx); err != nil {
		return v.Snapshot(), err
	}
	return v.Snapshot(), nil
}

// Subscribe returns a channel signalled after every selection or query change.
// Signals coalesce; read Snapshot after each one.
func (v *View) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	v.mu.Lock()
	v.nextSub++
	id := v.nextSub
	v.subs[id] = ch
	v.mu.Unlock()

	return ch, func() {
		v.mu.Lock()
		if sub, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(sub)
		}
		v.mu.Unlock()
	}
}

// Close cancels in-flight requests and releases subscribers.
func (v *View) Close() {
	v.stop()
	<-v.done
	v.apr.Close()
	v.pair.Close()

	v.mu.Lock()
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
	v.mu.Unlock()
}

func (v *View) applyLocked() {
	v.logger.Debug("selection changed",
		zap.String("pair", v.sel.Pair.Address),
		zap.String("name", v.sel.Pair.Name),
		zap.Int("window", int(v.sel.Window)),
	)
	v.apr.SetParams(feed.APRParams{Address: v.sel.Pair.Address, Window: v.sel.Window})
	v.pair.SetParams(feed.PairParams{Address: v.sel.Pair.Address})
	v.notifyLocked()
}

func (v *View) forward(ctx context.Context, aprCh <-chan feed.APRState, pairCh <-chan feed.PairState, unsubscribe func()) {
	defer close(v.done)
	defer unsubscribe()

	for aprCh != nil || pairCh != nil {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-aprCh:
			if !ok {
				aprCh = nil
			}
		case _, ok := <-pairCh:
			if !ok {
				pairCh = nil
			}
		}
		v.mu.Lock()
		v.notifyLocked()
		v.mu.Unlock()
	}
}

func (v *View) notifyLocked() {
	for _, ch := range v.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
