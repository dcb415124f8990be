package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajesoeste/apiserver/config"
)

func TestLocalClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	store, err := Open(ctx, config.Config{Store: config.StoreConfig{BlobDriver: config.BlobDriverLocal, DataDir: dir}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.Equal(t, dir, store.Bucket())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = store.Read(ctx, "users.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	payload := []byte(`{"users":[]}`)
	require.NoError(t, store.Write(ctx, "users.json", payload, "application/json"))

	got, err := store.Read(ctx, "users.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	updated := []byte(`{"users":[{"id":"1"}]}`)
	require.NoError(t, store.Write(ctx, "users.json", updated, "application/json"))
	got, err = store.Read(ctx, "users.json")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	require.NoError(t, store.Delete(ctx, "users.json"))
	require.NoError(t, store.Delete(ctx, "users.json"))
	_, err = store.Read(ctx, "users.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestStorage_Prefix(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, config.Config{Store: config.StoreConfig{
		BlobDriver: config.BlobDriverLocal,
		DataDir:    dir,
		Prefix:     "/viajes/",
	}})
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, "travel-requests.json", []byte(`{}`), "application/json"))
	_, err = os.Stat(filepath.Join(dir, "viajes", "travel-requests.json"))
	assert.NoError(t, err)
	assert.Equal(t, dir+"/viajes/travel-requests.json", store.Location("travel-requests.json"))

	unscoped := NewStorage(store.backend)
	_, err = unscoped.Read(ctx, "travel-requests.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalClient_RejectsEscapingKeys(t *testing.T) {
	client, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.json", "/etc/passwd"} {
		_, err := client.Read(context.Background(), key)
		assert.Error(t, err, key)
		assert.NotErrorIs(t, err, ErrObjectNotFound, key)
	}
}

func TestOpen_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, config.Config{Store: config.StoreConfig{BlobDriver: config.BlobDriverLocal}})
	assert.ErrorContains(t, err, "directory is required")

	_, err = Open(ctx, config.Config{Store: config.StoreConfig{BlobDriver: config.BlobDriverMinio}})
	assert.ErrorContains(t, err, "minio endpoint is required")

	_, err = Open(ctx, config.Config{Store: config.StoreConfig{BlobDriver: config.BlobDriverGCS}})
	assert.ErrorContains(t, err, "gcs bucket is required")

	_, err = Open(ctx, config.Config{Store: config.StoreConfig{BlobDriver: "ftp"}})
	assert.ErrorContains(t, err, "unknown blob driver")
}
