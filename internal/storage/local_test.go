package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docflow/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	f, err := store.Store(ctx, strings.NewReader("hello"), 5, "../../report final.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.Size)
	assert.Equal(t, "application/pdf", f.Type)
	assert.True(t, strings.HasSuffix(f.Path, "-report_final.pdf"), f.Path)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, filepath.Dir(f.Path))

	rc, err := store.Open(ctx, f.Path)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))

	require.NoError(t, store.Delete(ctx, f.Path))
	_, err = store.Open(ctx, f.Path)
	assert.ErrorIs(t, err, storage.ErrFileNotFound)

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, f.Path))
}

func TestLocalStoreRejectsShortWrites(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	_, err = store.Store(context.Background(), strings.NewReader("abc"), 10, "a.txt", "text/plain")
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStoreIgnoresPathsOutsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	outside := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	_, err = store.Open(context.Background(), outside)
	assert.ErrorIs(t, err, storage.ErrFileNotFound)

	storage.Discard(context.Background(), store, outside, zap.NewNop())
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
