package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Memory)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_MigratesOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wbg.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.LocalStorage("a").SetItem(ctx, "k", "v"))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.SQL().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)

	v, ok, err := db.LocalStorage("a").GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	ls := db.LocalStorage("https://game.example")

	_, ok, err := ls.GetItem(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ls.SetItem(ctx, "b", "1"))
	require.NoError(t, ls.SetItem(ctx, "a", "2"))
	require.NoError(t, ls.SetItem(ctx, "b", "3"))

	n, err := ls.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	k, ok, err := ls.Key(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", k, "overwrite keeps insertion position")

	v, _, err := ls.GetItem(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	_, ok, err = ls.Key(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ls.RemoveItem(ctx, "b"))
	require.NoError(t, ls.RemoveItem(ctx, "nope"))
	k, _, _ = ls.Key(ctx, 0)
	assert.Equal(t, "a", k)

	require.NoError(t, ls.Clear(ctx))
	n, _ = ls.Length(ctx)
	assert.Zero(t, n)
}

func TestLocalStorage_OriginIsolation(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	a := db.LocalStorage("a")
	b := db.LocalStorage("b")

	require.NoError(t, a.SetItem(ctx, "k", "from a"))
	_, ok, err := b.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Clear(ctx))
	n, _ := a.Length(ctx)
	assert.Equal(t, 1, n)
}
