package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	ref string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.ref
	return nil
}

type fakeDB struct {
	row      fakeRow
	lastSQL  string
	lastArgs []any
	execErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastSQL, f.lastArgs = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return f.row
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("no transactions in fake")
}

func TestStore_Locate(t *testing.T) {
	db := &fakeDB{row: fakeRow{ref: "https://feeds.example/unit/2025-03-14.csv"}}
	s := New(db)

	ref, err := s.Locate(context.Background(), "unit", "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, "https://feeds.example/unit/2025-03-14.csv", ref)
	require.Len(t, db.lastArgs, 2)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), db.lastArgs[1])
}

func TestStore_Locate_Errors(t *testing.T) {
	s := New(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})
	_, err := s.Locate(context.Background(), "unit", "2025-03-14")
	assert.ErrorIs(t, err, core.ErrFeedNotFound)

	_, err = s.Locate(context.Background(), "unit", "14/03/2025")
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	boom := errors.New("connection reset")
	s = New(&fakeDB{row: fakeRow{err: boom}})
	_, err = s.Locate(context.Background(), "unit", "2025-03-14")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, core.ErrFeedNotFound)
}

func TestStore_IndexFeed(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	require.NoError(t, s.IndexFeed(context.Background(), "vessel", "2025-03-14", "/srv/feeds/v.csv"))
	assert.Contains(t, db.lastSQL, "ON CONFLICT")
	assert.Equal(t, "/srv/feeds/v.csv", db.lastArgs[2])
}

func TestStore_RecordDay_BeginError(t *testing.T) {
	s := New(&fakeDB{})
	_, err := s.RecordDay(context.Background(), &core.DayResult{Feed: "unit", Date: "2025-03-14"})
	assert.ErrorContains(t, err, "begin transaction")

	_, err = s.RecordDay(context.Background(), &core.DayResult{Feed: "unit", Date: "bad"})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"feed_sources", "ingest_runs", "classified_units"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
