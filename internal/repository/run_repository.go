package repository

import (
	"context"
	"database/sql"

	"catalogsync/internal/model"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	run_id          UUID PRIMARY KEY,
	variant         TEXT NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ NOT NULL,
	ok              BOOLEAN NOT NULL,
	since           TEXT,
	fetched         INTEGER NOT NULL DEFAULT 0,
	created         INTEGER NOT NULL DEFAULT 0,
	updated         INTEGER NOT NULL DEFAULT 0,
	skipped         INTEGER NOT NULL DEFAULT 0,
	deactivated     INTEGER NOT NULL DEFAULT 0,
	catalog_size    INTEGER NOT NULL DEFAULT 0,
	catalog_written BOOLEAN NOT NULL DEFAULT FALSE,
	watermark       TEXT,
	error           TEXT
)`

// RunRepository guarda o histórico das execuções na tabela sync_runs.
type RunRepository struct {
	DB *sql.DB
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, runsSchema)
	return err
}

func (r *RunRepository) RecordRun(ctx context.Context, rep model.RunReport) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sync_runs
		(run_id, variant, started_at, finished_at, ok, since, fetched, created, updated, skipped, deactivated, catalog_size, catalog_written, watermark, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, rep.RunID, rep.Variant, rep.StartedAt, rep.FinishedAt, rep.OK, nullable(rep.Since),
		rep.Fetched, rep.Created, rep.Updated, rep.Skipped, rep.Deactivated,
		rep.CatalogSize, rep.CatalogWritten, nullable(rep.Watermark), nullable(rep.Error))
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
