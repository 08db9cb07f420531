// Package store persists classified feed days to PostgreSQL and serves the
// feed_sources index used by the indexed source.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the subset of pgxpool.Pool the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements core.Recorder and source.Locator.
type Store struct {
	db DBTX
}

// New creates a store over a pool or connection.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Locate returns the ref indexed for feed and date.
func (s *Store) Locate(ctx context.Context, feed, date string) (string, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidDate, date)
	}

	var ref string
	err = s.db.QueryRow(ctx,
		`SELECT ref FROM feed_sources WHERE feed = $1 AND day = $2`,
		feed, day,
	).Scan(&ref)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%s %s: %w", feed, date, core.ErrFeedNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("locate %s %s: %w", feed, date, err)
	}
	return ref, nil
}

// IndexFeed records where the file for feed and date lives.
func (s *Store) IndexFeed(ctx context.Context, feed, date, ref string) error {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidDate, date)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO feed_sources (feed, day, ref) VALUES ($1, $2, $3)
		ON CONFLICT (feed, day) DO UPDATE SET ref = EXCLUDED.ref, updated_at = now()`,
		feed, day, ref,
	)
	if err != nil {
		return fmt.Errorf("index %s %s: %w", feed, date, err)
	}
	return nil
}

// RecordDay stores one classified day in a single transaction, replacing
// earlier rows for the same feed and date. Returns the new run id.
func (s *Store) RecordDay(ctx context.Context, day *core.DayResult) (string, error) {
	date, err := time.Parse(time.DateOnly, day.Date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidDate, day.Date)
	}
	runID := uuid.New()

	rows, err := unitRows(runID, day.Feed, date, day.Units)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, `
		INSERT INTO ingest_runs (id, feed, day, ref, delimiter, total_rows, unit_count, skipped, loaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		runID, day.Feed, date, day.Ref, day.Delimiter,
		day.TotalRows, len(day.Units), len(day.Skipped), day.LoadedAt,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM classified_units WHERE feed = $1 AND day = $2`,
		day.Feed, date,
	); err != nil {
		return "", fmt.Errorf("clear units: %w", err)
	}

	if len(rows) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"classified_units"}, unitColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return "", fmt.Errorf("copy units: %w", err)
		}
		if int(n) != len(rows) {
			return "", fmt.Errorf("copy units: wrote %d of %d rows", n, len(rows))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return runID.String(), nil
}
