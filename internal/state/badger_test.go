package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore_SetLookup(t *testing.T) {
	store, err := OpenBadger("", nil)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, found, err := store.Lookup(ctx, "user_name")
	require.NoError(t, err)
	assert.False(t, found, "absence is not an error")

	require.NoError(t, store.Set(ctx, "user_name", "Jean-Luc"))
	v, found, err := store.Lookup(ctx, "user_name")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Jean-Luc", v)

	require.NoError(t, store.Set(ctx, "user_name", "Will"))
	v, _, _ = store.Lookup(ctx, "user_name")
	assert.Equal(t, "Will", v)

	require.NoError(t, store.Set(ctx, "empty", ""))
	v, found, err = store.Lookup(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, found, "an empty value is still present")
	assert.Equal(t, "", v)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBadgerStore_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	store, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Close())

	reopened, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()
	v, found, err := reopened.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
}

func TestBadgerStore_CancelledContext(t *testing.T) {
	store, err := OpenBadger("", nil)
	require.NoError(t, err)
	defer store.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = store.Lookup(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMap_Lookup(t *testing.T) {
	m := Map{"x": "stored"}
	v, found, err := m.Lookup(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "stored", v)

	_, found, err = m.Lookup(context.Background(), "y")
	require.NoError(t, err)
	assert.False(t, found)
}
