// Package store persists a history of cleaning runs in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/cleanfile/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned by Get for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// MaxListLimit caps a single List page.
const MaxListLimit = 500

// Record is one persisted cleaning run.
type Record struct {
	ID           uuid.UUID   `json:"id"`
	FileName     string      `json:"file_name"`
	OutputName   string      `json:"output_name"`
	Format       string      `json:"format"`
	Rows         int         `json:"rows"`
	Cells        int         `json:"cells"`
	ChangedCells int         `json:"changed_cells"`
	SkippedCells int         `json:"skipped_cells"`
	Total        int         `json:"total"`
	Counts       core.Counts `json:"counts"`
	DurationMS   int64       `json:"duration_ms"`
	ClientIP     string      `json:"client_ip,omitempty"`
	UserAgent    string      `json:"user_agent,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Page is one page of run history, newest first.
type Page struct {
	Records    []Record `json:"records"`
	TotalCount int64    `json:"total_count"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}

// Store reads and writes run history.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Save inserts rec.
func (s *Store) Save(ctx context.Context, rec Record) error {
	counts, err := json.Marshal(rec.Counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO cleaning_runs (
			id, file_name, output_name, format, row_count, cell_count, changed_cells,
			skipped_cells, total_removed, counts, duration_ms, client_ip, user_agent, created_at
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, NULLIF($12, ''), NULLIF($13, ''), $14)`,
		rec.ID.String(), rec.FileName, rec.OutputName, rec.Format,
		rec.Rows, rec.Cells, rec.ChangedCells, rec.SkippedCells, rec.Total,
		string(counts), rec.DurationMS, rec.ClientIP, rec.UserAgent, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	return nil
}

const selectColumns = `id::text, file_name, output_name, format, row_count, cell_count, changed_cells,
	skipped_cells, total_removed, counts::text, duration_ms,
	COALESCE(client_ip, ''), COALESCE(user_agent, ''), created_at`

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM cleaning_runs WHERE id = $1::uuid`, id.String())
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return rec, err
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cleaning_runs`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM cleaning_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Page{Records: records, TotalCount: total, Limit: limit, Offset: offset}, nil
}

// Totals sums every persisted run.
func (s *Store) Totals(ctx context.Context) (core.Totals, error) {
	rows, err := s.pool.Query(ctx, `SELECT counts::text, row_count, cell_count, created_at FROM cleaning_runs ORDER BY created_at`)
	if err != nil {
		return core.Totals{}, fmt.Errorf("sum runs: %w", err)
	}
	defer rows.Close()

	var t core.Totals
	for rows.Next() {
		var (
			countsJSON string
			nRows      int
			nCells     int
			created    time.Time
		)
		if err := rows.Scan(&countsJSON, &nRows, &nCells, &created); err != nil {
			return core.Totals{}, err
		}
		var c core.Counts
		if err := json.Unmarshal([]byte(countsJSON), &c); err != nil {
			return core.Totals{}, fmt.Errorf("decode counts: %w", err)
		}
		if t.Runs == 0 {
			t.Since = created
		}
		t.Runs++
		t.Counts.Merge(c)
		t.Total += c.Total()
		t.Rows += nRows
		t.Cells += nCells
		t.LastRun = created
	}
	return t, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec        Record
		id         string
		countsJSON string
	)
	err := row.Scan(
		&id, &rec.FileName, &rec.OutputName, &rec.Format,
		&rec.Rows, &rec.Cells, &rec.ChangedCells, &rec.SkippedCells, &rec.Total,
		&countsJSON, &rec.DurationMS, &rec.ClientIP, &rec.UserAgent, &rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("parse run id: %w", err)
	}
	if err := json.Unmarshal([]byte(countsJSON), &rec.Counts); err != nil {
		return Record{}, fmt.Errorf("decode counts: %w", err)
	}
	return rec, nil
}
