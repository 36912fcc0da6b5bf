package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) (*DataStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.json")
	ds, err := New(path)
	require.NoError(t, err)
	return ds, path
}

func TestSetGetDelete(t *testing.T) {
	ds, _ := newTestStore(t)
	defer ds.Close()

	require.NoError(t, ds.Set("g1", testRecord{Name: "alpha", Count: 3}))

	var got testRecord
	ok, err := ds.Get("g1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testRecord{Name: "alpha", Count: 3}, got)

	ok, err = ds.Get("missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	ds.Delete("g1")
	ok, _ = ds.Get("g1", &got)
	assert.False(t, ok)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ds, path := newTestStore(t)
	require.NoError(t, ds.Set("g1", testRecord{Name: "kept"}))
	require.NoError(t, ds.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	var got testRecord
	ok, err := reopened.Get("g1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "kept", got.Name)
}

func TestKeys(t *testing.T) {
	ds, _ := newTestStore(t)
	defer ds.Close()

	require.NoError(t, ds.Set("a", 1))
	require.NoError(t, ds.Set("b", 2))
	assert.ElementsMatch(t, []string{"a", "b"}, ds.Keys())
}

func TestCorruptFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestMissingFileIsEmptyStore(t *testing.T) {
	ds, err := New(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	defer ds.Close()
	assert.Empty(t, ds.Keys())
}
