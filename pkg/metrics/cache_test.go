package metrics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadLabelCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.msgpack")

	published := []labelSet{
		{"host": "h1", "eid": "e1", "username": "alice"},
		{"host": "h1", "index": "0"},
	}
	require.NoError(t, SaveLabelCache(path, published))

	loaded, err := LoadLabelCache(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.ElementsMatch(t, []string{key(published[0]), key(published[1])}, []string{key(loaded[0]), key(loaded[1])})
}

func TestLoadLabelCacheMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.msgpack")

	loaded, err := LoadLabelCache(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSaveLabelCacheEmptySlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.msgpack")
	require.NoError(t, SaveLabelCache(path, nil))

	loaded, err := LoadLabelCache(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
