// Package postgres upserts the region map into a PostgreSQL table.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

const createTable = `CREATE TABLE IF NOT EXISTS region_grid (
	region     TEXT PRIMARY KEY,
	nx         INT NOT NULL,
	ny         INT NOT NULL,
	run_id     UUID NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const upsertRegion = `INSERT INTO region_grid (region, nx, ny, run_id, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (region) DO UPDATE
SET nx = EXCLUDED.nx, ny = EXCLUDED.ny, run_id = EXCLUDED.run_id, updated_at = EXCLUDED.updated_at`

// Publisher writes every map entry in a single transaction.
// It implements pipeline.Publisher.
type Publisher struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPublisher opens a connection pool for databaseURL.
func NewPublisher(ctx context.Context, databaseURL string, logger *slog.Logger) (*Publisher, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Publisher{pool: pool, logger: logger}, nil
}

func (p *Publisher) Name() string { return "postgres" }

// Publish creates the table if absent and upserts all entries. Regions absent
// from this run are left untouched; their run_id shows they are stale.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create region_grid: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range snap.Map.Entries() {
		batch.Queue(upsertRegion, e.Region, e.Coord.NX, e.Coord.NY, snap.RunID, snap.ExtractedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert regions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.logger.Debug("regions upserted", "count", snap.Map.Len())
	return nil
}

// Lookup returns the stored grid cell for region.
func (p *Publisher) Lookup(ctx context.Context, region string) (domain.GridCoordinate, string, error) {
	var (
		coord domain.GridCoordinate
		runID string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT nx, ny, run_id::text FROM region_grid WHERE region = $1`, region,
	).Scan(&coord.NX, &coord.NY, &runID)
	if err != nil {
		return domain.GridCoordinate{}, "", fmt.Errorf("lookup %q: %w", region, err)
	}
	return coord, runID, nil
}

func (p *Publisher) Close() {
	p.pool.Close()
}
