package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL creates the run history table.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS cleaning_runs (
  id UUID PRIMARY KEY,
  file_name TEXT NOT NULL,
  output_name TEXT NOT NULL,
  format TEXT NOT NULL,
  row_count INTEGER NOT NULL,
  cell_count INTEGER NOT NULL,
  changed_cells INTEGER NOT NULL,
  skipped_cells INTEGER NOT NULL,
  total_removed INTEGER NOT NULL,
  counts JSONB NOT NULL,
  duration_ms BIGINT NOT NULL,
  client_ip TEXT NULL,
  user_agent TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_cleaning_runs_created ON cleaning_runs (created_at DESC);
`

// AutoMigrate applies the schema on startup.
func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
