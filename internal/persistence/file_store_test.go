package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStorePanicsOnEmptyPath(t *testing.T) {
	assert.Panics(t, func() { NewFileStore("") })
}

func TestStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "state.json"))

	require.NoError(t, store.Store([]byte(`{"hello":"world"}`)))

	data, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(data))
}

func TestLoadMissingFileReturnsEmptyNotNil(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "missing.json"))

	data, err := store.Load()
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestStoreDoesNotCreateMissingDirectories(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "nested", "state.json"))

	err := store.Store([]byte("data"))
	assert.Error(t, err)
}

func TestClearIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	store := NewFileStore(path)

	require.NoError(t, store.Store([]byte("data")))
	require.NoError(t, store.Clear())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	assert.NoError(t, store.Clear())
}
