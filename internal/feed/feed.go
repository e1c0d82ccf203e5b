// Package feed binds backend endpoints to query lifecycles.
package feed

import (
	"context"

	"go.uber.org/zap"

	"aprScope/internal/api"
	"aprScope/internal/model"
	"aprScope/internal/query"
)

// Source is the subset of api.Client the feeds read from.
type Source interface {
	LatestSnapshot(ctx context.Context, address string) (*model.PairSnapshot, error)
	APRSeries(ctx context.Context, address string, window model.Window) ([]model.APRDataPoint, error)
	History(ctx context.Context, q api.HistoryQuery) ([]model.PairSnapshot, *model.HistoryMeta, error)
}

type PairParams struct {
	Address string
}

type APRParams struct {
	Address string
	Window  model.Window
}

// HistoryParams selects historical snapshots. Empty dates and a zero limit are not sent.
type HistoryParams struct {
	Address   string
	StartDate string
	EndDate   string
	Limit     int
}

type (
	PairQuery    = query.Query[PairParams, *model.PairSnapshot, struct{}]
	APRQuery     = query.Query[APRParams, []model.APRDataPoint, struct{}]
	HistoryQuery = query.Query[HistoryParams, []model.PairSnapshot, model.HistoryMeta]

	PairState    = query.State[*model.PairSnapshot, struct{}]
	APRState     = query.State[[]model.APRDataPoint, struct{}]
	HistoryState = query.State[[]model.PairSnapshot, model.HistoryMeta]
)

// NewPairQuery tracks the latest snapshot of a pair.
func NewPairQuery(ctx context.Context, src Source, logger *zap.Logger) *PairQuery {
	return query.New(ctx, "pair_latest", func(ctx context.Context, p PairParams) (*model.PairSnapshot, *struct{}, error) {
		snapshot, err := src.LatestSnapshot(ctx, p.Address)
		return snapshot, nil, err
	}, query.Options[PairParams]{
		Enabled: func(p PairParams) bool { return p.Address != "" },
		Logger:  logger,
	})
}

// NewAPRQuery tracks the APR series of a pair for a window.
func NewAPRQuery(ctx context.Context, src Source, logger *zap.Logger) *APRQuery {
	return query.New(ctx, "pair_apr", func(ctx context.Context, p APRParams) ([]model.APRDataPoint, *struct{}, error) {
		points, err := src.APRSeries(ctx, p.Address, p.Window)
		return points, nil, err
	}, query.Options[APRParams]{
		Enabled: func(p APRParams) bool { return p.Address != "" },
		Logger:  logger,
	})
}

// NewHistoryQuery tracks historical snapshots of a pair.
func NewHistoryQuery(ctx context.Context, src Source, logger *zap.Logger) *HistoryQuery {
	return query.New(ctx, "pair_history", func(ctx context.Context, p HistoryParams) ([]model.PairSnapshot, *model.HistoryMeta, error) {
		return src.History(ctx, api.HistoryQuery{
			Address:   p.Address,
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			Limit:     p.Limit,
		})
	}, query.Options[HistoryParams]{
		Enabled: func(p HistoryParams) bool { return p.Address != "" },
		Logger:  logger,
	})
}
