package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestStore_PutGetJSON_RoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	defer s.Close()

	in := record{Name: "Author/Book", N: 3}
	require.NoError(t, s.PutJSON(BucketFolders, []byte("Author/Book"), in))

	var out record
	require.NoError(t, s.GetJSON(BucketFolders, []byte("Author/Book"), &out))
	assert.Equal(t, in, out)
}

func TestStore_GetJSON_MissingKey(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	defer s.Close()

	var out record
	err = s.GetJSON(BucketFolders, []byte("nope"), &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutJSON(BucketFolders, []byte("k"), record{Name: "x"}))
	require.NoError(t, s.Delete(BucketFolders, []byte("k")))

	var out record
	assert.ErrorIs(t, s.GetJSON(BucketFolders, []byte("k"), &out), ErrNotFound)
}

func TestStore_ForEach(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "collection.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutJSON(BucketFolders, []byte("a"), record{Name: "a"}))
	require.NoError(t, s.PutJSON(BucketFolders, []byte("b"), record{Name: "b"}))

	seen := map[string]bool{}
	err = s.ForEach(BucketFolders, func(k, v []byte) error {
		seen[string(k)] = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}

func TestStore_ReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collection.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.PutJSON(BucketMeta, []byte("last_scan"), record{Name: "seen"}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var out record
	require.NoError(t, s2.GetJSON(BucketMeta, []byte("last_scan"), &out))
	assert.Equal(t, "seen", out.Name)
}
