package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	s, err := Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("postgres")
	require.NoError(t, err)
	require.Equal(t, DialectPostgres, d)

	d, err = ParseDialect("sqlite3")
	require.NoError(t, err)
	require.Equal(t, DialectSQLite, d)

	_, err = ParseDialect("mysql")
	require.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "$3", DialectPostgres.placeholder(3))
	require.Equal(t, "?", DialectSQLite.placeholder(3))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "whatever")
	require.Error(t, err)
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.Equal(t, DialectSQLite, s.Dialect())

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id1, err := s.Record(ctx, Entry{Expression: "2+3*4", Result: "14", CreatedAt: at})
	require.NoError(t, err)
	id2, err := s.Record(ctx, Entry{Expression: "2)", Error: "stack underflow: unmatched ) at 1:2"})
	require.NoError(t, err)
	require.True(t, id2 > id1)

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, id2, entries[0].ID)
	require.Equal(t, "2)", entries[0].Expression)
	require.Equal(t, "", entries[0].Result)
	require.Equal(t, "stack underflow: unmatched ) at 1:2", entries[0].Error)
	require.False(t, entries[0].CreatedAt.IsZero())

	require.Equal(t, id1, entries[1].ID)
	require.Equal(t, "14", entries[1].Result)
	require.Equal(t, "", entries[1].Error)
	require.True(t, at.Equal(entries[1].CreatedAt))
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, expr := range []string{"1", "2", "3"} {
		_, err := s.Record(ctx, Entry{Expression: expr, Result: expr})
		require.NoError(t, err)
	}

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "3", entries[0].Expression)
	require.Equal(t, "2", entries[1].Expression)
}

func TestReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, "sqlite3", path)
	require.NoError(t, err)
	_, err = s.Record(ctx, Entry{Expression: "1+1", Result: "2"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, "sqlite3", path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "1+1", entries[0].Expression)
}
