// Package archive exports fetched APR series to storage sinks for offline analysis.
package archive

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aprScope/internal/model"
	"aprScope/internal/storage"
)

// Source fetches APR series.
type Source interface {
	APRSeries(ctx context.Context, address string, window model.Window) ([]model.APRDataPoint, error)
}

// Recorder receives archive counters.
type Recorder interface {
	RecordStored(sink string, n int)
	RecordRun(status string)
}

// RunConfig holds runtime settings for an archive run.
type RunConfig struct {
	Pairs        []string
	Windows      []model.Window
	Since        time.Time
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Result summarizes a run.
type Result struct {
	Fetched int
	Stored  int
	Skipped int
}

// Runner fetches each pair and window once and writes new points to every sink.
type Runner struct {
	cfg      RunConfig
	source   Source
	sinks    []storage.Storage
	state    StateStore
	logger   *zap.Logger
	recorder Recorder
	seen     map[string]struct{}
	now      func() time.Time
}

// NewRunner builds a Runner with its dependencies. state and recorder may be nil.
func NewRunner(cfg RunConfig, source Source, sinks []storage.Storage, state StateStore, recorder Recorder, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		source:   source,
		sinks:    sinks,
		state:    state,
		logger:   logger,
		recorder: recorder,
		seen:     make(map[string]struct{}),
		now:      time.Now,
	}
}

// Run archives every configured pair and window.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res, err := r.run(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if r.recorder != nil {
		r.recorder.RecordRun(status)
	}
	return res, err
}

func (r *Runner) run(ctx context.Context) (Result, error) {
	var total Result

	if r.source == nil {
		return total, fmt.Errorf("source is nil")
	}
	if len(r.sinks) == 0 {
		return total, fmt.Errorf("at least one sink is required")
	}
	if r.cfg.BatchSize <= 0 {
		return total, fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Pairs) == 0 {
		return total, fmt.Errorf("at least one pair is required")
	}
	if len(r.cfg.Windows) == 0 {
		return total, fmt.Errorf("at least one window is required")
	}

	for _, pair := range r.cfg.Pairs {
		for _, window := range r.cfg.Windows {
			select {
			case <-ctx.Done():
				return total, ctx.Err()
			default:
			}

			res, err := r.archiveSeries(ctx, pair, window)
			total.Fetched += res.Fetched
			total.Stored += res.Stored
			total.Skipped += res.Skipped
			if err != nil {
				return total, fmt.Errorf("archive %s window %s: %w", pair, window, err)
			}
		}
	}
	return total, nil
}

func (r *Runner) archiveSeries(ctx context.Context, pair string, window model.Window) (Result, error) {
	var res Result
	key := StateKey(pair, window)

	cutoff := r.cfg.Since
	if r.state != nil {
		last, ok, err := r.state.Load(ctx, key)
		if err != nil {
			return res, fmt.Errorf("load state: %w", err)
		}
		if ok && last.After(cutoff) {
			cutoff = last
			r.logger.Info("resume from state", zap.String("key", key), zap.Time("last_archived", last))
		}
	}

	r.logger.Info("fetch apr series", zap.String("pair", pair), zap.Int("window", int(window)))
	points, err := r.fetchWithRetry(ctx, pair, window)
	if err != nil {
		return res, fmt.Errorf("fetch apr series: %w", err)
	}
	res.Fetched = len(points)

	fetchedAt := r.now().UTC()
	records := make([]model.APRRecord, 0, len(points))
	var newest time.Time
	for _, point := range points {
		rec, ok := buildAPRRecord(pair, window, point, fetchedAt)
		if !ok {
			r.logger.Warn("skip point with invalid timestamp", zap.String("pair", pair), zap.String("timestamp", point.Timestamp))
			res.Skipped++
			continue
		}
		if !cutoff.IsZero() && !rec.ObservedAt.After(cutoff) {
			res.Skipped++
			continue
		}
		if r.isDuplicate(rec) {
			res.Skipped++
			continue
		}
		records = append(records, rec)
		if rec.ObservedAt.After(newest) {
			newest = rec.ObservedAt
		}
	}

	spans, err := splitBatches(len(records), r.cfg.BatchSize)
	if err != nil {
		return res, err
	}
	for _, s := range spans {
		batch := records[s.From:s.To]
		for _, sink := range r.sinks {
			if err := sink.PutAPRBatch(ctx, batch); err != nil {
				return res, fmt.Errorf("store %s: %w", sink.Name(), err)
			}
			if r.recorder != nil {
				r.recorder.RecordStored(sink.Name(), len(batch))
			}
		}
		res.Stored += len(batch)
	}

	if r.state != nil && !newest.IsZero() {
		if err := r.state.Save(ctx, key, newest); err != nil {
			return res, fmt.Errorf("save state: %w", err)
		}
	}

	r.logger.Info("series complete",
		zap.String("pair", pair),
		zap.Int("window", int(window)),
		zap.Int("fetched", res.Fetched),
		zap.Int("stored", res.Stored),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (r *Runner) fetchWithRetry(ctx context.Context, pair string, window model.Window) ([]model.APRDataPoint, error) {
	var points []model.APRDataPoint
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		points, err = r.source.APRSeries(ctx, pair, window)
		if err != nil {
			r.logger.Warn("fetch apr series failed", zap.Error(err), zap.String("pair", pair), zap.Int("window", int(window)))
		}
		return err
	})
	return points, err
}

func (r *Runner) isDuplicate(rec model.APRRecord) bool {
	id := rec.PairAddress + ":" + rec.Window.String() + ":" + rec.Point.Timestamp
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}

func buildAPRRecord(pair string, window model.Window, point model.APRDataPoint, fetchedAt time.Time) (model.APRRecord, bool) {
	ts, err := time.Parse(time.RFC3339Nano, point.Timestamp)
	if err != nil {
		return model.APRRecord{}, false
	}
	return model.APRRecord{
		PairAddress: pair,
		Window:      window,
		Point:       point,
		ObservedAt:  ts.UTC(),
		FetchedAt:   fetchedAt.Format(time.RFC3339Nano),
	}, true
}
