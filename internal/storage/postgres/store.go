package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aprScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS apr_points (
	pair_address  TEXT NOT NULL,
	window_hours  INTEGER NOT NULL,
	ts            TIMESTAMPTZ NOT NULL,
	apr           DOUBLE PRECISION NOT NULL,
	reserve_usd   DOUBLE PRECISION,
	volume_usd    DOUBLE PRECISION,
	fees_usd      DOUBLE PRECISION,
	fee_rate      DOUBLE PRECISION,
	fetched_at    TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pair_address, window_hours, ts)
);
CREATE TABLE IF NOT EXISTS archive_state (
	name               TEXT PRIMARY KEY,
	last_archived_ts   TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for archived APR points.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Name() string {
	return "postgres"
}

// EnsureSchema creates the archive tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutAPRBatch inserts or updates APR points keyed by pair, window and timestamp.
func (s *Store) PutAPRBatch(ctx context.Context, records []model.APRRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		fetchedAt, err := time.Parse(time.RFC3339Nano, rec.FetchedAt)
		if err != nil {
			return fmt.Errorf("parse fetched_at %q: %w", rec.FetchedAt, err)
		}
		batch.Queue(`
			INSERT INTO apr_points (
				pair_address, window_hours, ts, apr, reserve_usd, volume_usd, fees_usd, fee_rate,
				fetched_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
			ON CONFLICT (pair_address, window_hours, ts)
			DO UPDATE SET
				apr = EXCLUDED.apr,
				reserve_usd = EXCLUDED.reserve_usd,
				volume_usd = EXCLUDED.volume_usd,
				fees_usd = EXCLUDED.fees_usd,
				fee_rate = EXCLUDED.fee_rate,
				fetched_at = EXCLUDED.fetched_at,
				updated_at = now()
		`,
			rec.PairAddress,
			int(rec.Window),
			rec.ObservedAt,
			rec.Point.APR,
			rec.Point.ReserveUSD,
			rec.Point.VolumeUSD,
			rec.Point.FeesUSD,
			rec.Point.FeeRate,
			fetchedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last archived timestamp for a name.
func (s *Store) LoadState(ctx context.Context, name string) (time.Time, bool, error) {
	if name == "" {
		return time.Time{}, false, fmt.Errorf("state name required")
	}
	var ts time.Time
	row := s.pool.QueryRow(ctx, `SELECT last_archived_ts FROM archive_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return ts.UTC(), true, nil
}

// SaveState upserts the last archived timestamp for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts time.Time) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO archive_state (name, last_archived_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_archived_ts = EXCLUDED.last_archived_ts, updated_at = now()
	`, name, ts)
	return err
}
