package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "larder.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Get(ctx, KeyInventory)
	assert.True(t, errors.Is(err, ErrNotFound), "missing key should be ErrNotFound, got %v", err)

	require.NoError(t, db.Set(ctx, KeyInventory, []byte(`{"items":[]}`)))
	require.NoError(t, db.Set(ctx, KeyInventory, []byte(`{"items":[1]}`)))

	got, err := db.Get(ctx, KeyInventory)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[1]}`, string(got))

	keys, err := db.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, KeyInventory, keys[0].Key)
	assert.EqualValues(t, len(`{"items":[1]}`), keys[0].SizeBytes)

	require.NoError(t, db.Remove(ctx, KeyInventory))
	require.NoError(t, db.Remove(ctx, KeyInventory))
	_, err = db.Get(ctx, KeyInventory)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "larder.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, KeyExpiry, []byte("alerts")))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	got, err := db.Get(ctx, KeyExpiry)
	require.NoError(t, err)
	assert.Equal(t, "alerts", string(got))
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	m.FailWrites = true
	assert.Error(t, m.Set(ctx, "k", []byte("new")))
}
