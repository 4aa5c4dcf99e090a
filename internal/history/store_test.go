package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	v, err := s.version(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestSaveListGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	older := &Run{File: "a.csv", Rows: 10, Columns: 3, CreatedAt: base, Markdown: "[SCHEMA]\n"}
	newer := &Run{File: "b.parquet", Rows: 5, Columns: 2, Model: "llama-3.1-8b-instant", CreatedAt: base.Add(time.Hour), Insight: "ok"}
	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))
	assert.Len(t, older.ID, 36)

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b.parquet", runs[0].File)
	assert.Equal(t, "a.csv", runs[1].File)
	assert.Empty(t, runs[1].Markdown, "list omits bodies")
	assert.True(t, runs[0].CreatedAt.Equal(base.Add(time.Hour)))

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	got, err := s.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "[SCHEMA]\n", got.Markdown)
	assert.Equal(t, 10, got.Rows)

	got, err = s.Get(ctx, newer.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Insight)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
}

func TestGetErrors(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &Run{ID: "abc-1", File: "x.csv"}))
	require.NoError(t, s.Save(ctx, &Run{ID: "abc-2", File: "y.csv"}))

	_, err := s.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrAmbiguous)
	_, err = s.Get(ctx, "a_c")
	assert.ErrorIs(t, err, ErrNotFound, "underscore is not a wildcard")

	got, err := s.Get(ctx, "abc-2")
	require.NoError(t, err)
	assert.Equal(t, "y.csv", got.File)
}

func TestDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	r := &Run{File: "x.csv"}
	require.NoError(t, s.Save(ctx, r))
	require.NoError(t, s.Delete(ctx, r.ID))
	assert.ErrorIs(t, s.Delete(ctx, r.ID), ErrNotFound)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}
