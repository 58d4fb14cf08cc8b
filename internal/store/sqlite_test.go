package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestAddRecord_AssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &Record{Kind: RecordQuery, Project: "tools/ci", Change: "4221"}
	require.NoError(t, s.AddRecord(ctx, r))

	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestListRecords_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, change := range []string{"4100", "4221", "4221"} {
		r := &Record{
			Kind:      RecordQuery,
			Change:    change,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.AddRecord(ctx, r))
	}

	records, err := s.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "4221", records[0].Change)
	assert.Equal(t, "4100", records[2].Change)
}

func TestListRecords_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRecord(ctx, &Record{Kind: RecordQuery, Change: "4221"}))
	require.NoError(t, s.AddRecord(ctx, &Record{Kind: RecordCheckout, Change: "4221"}))
	require.NoError(t, s.AddRecord(ctx, &Record{Kind: RecordQuery, Change: "4100"}))

	byKind, err := s.ListRecords(ctx, RecordFilter{Kind: RecordCheckout})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, RecordCheckout, byKind[0].Kind)

	byChange, err := s.ListRecords(ctx, RecordFilter{Change: "4221"})
	require.NoError(t, err)
	assert.Len(t, byChange, 2)

	limited, err := s.ListRecords(ctx, RecordFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListRecords_Empty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.ListRecords(context.Background(), RecordFilter{})
	require.NoError(t, err)
	assert.Nil(t, records)
}
