package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStore_PutGet(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	t.Run("round-trips content", func(t *testing.T) {
		err := store.Put(ctx, "2024-01-15_invoices.csv", []byte("a,b,c\n"))
		require.NoError(t, err)

		content, err := store.Get(ctx, "2024-01-15_invoices.csv")
		require.NoError(t, err)
		assert.Equal(t, []byte("a,b,c\n"), content)
	})

	t.Run("creates nested key directories", func(t *testing.T) {
		err := store.Put(ctx, "mail/abc123/raw.eml", []byte("Date: x"))
		require.NoError(t, err)

		content, err := store.Get(ctx, "mail/abc123/raw.eml")
		require.NoError(t, err)
		assert.Equal(t, []byte("Date: x"), content)
	})

	t.Run("overwrites existing object", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "rules.json", []byte("old")))
		require.NoError(t, store.Put(ctx, "rules.json", []byte("new")))

		content, err := store.Get(ctx, "rules.json")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), content)
	})
}

func TestLocalStore_GetMissing(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())

	_, err := store.Get(context.Background(), "does-not-exist.csv")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStore_RejectsEscapingKey(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	err := store.Put(ctx, filepath.Join("..", "..", "etc", "evil"), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes base directory")

	_, err = store.Get(ctx, "../outside.txt")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Put(ctx, "k", []byte("v1")))
	require.NoError(t, store.Put(ctx, "k", []byte("v2")))

	content, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), content)
	assert.Equal(t, []string{"k"}, store.Keys())
}
