package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_ListFolder_OnDemandFetchAndPublish(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "01.mp3"), []byte("x"), 0o644))

	col := newTestCollection(t, root)
	idx := New(col, IngestOptions{}, logger.New())

	record, err := idx.ListFolder("")
	require.NoError(t, err)
	require.Len(t, record.Files, 1)

	assert.Equal(t, []string{""}, idx.RecentFolders())
}

func TestIndex_ListFolder_CacheHitAfterFirstFetch(t *testing.T) {
	root := t.TempDir()
	col := newTestCollection(t, root)
	idx := New(col, IngestOptions{}, logger.New())

	_, err := idx.ListFolder("")
	require.NoError(t, err)

	record, err := idx.ListFolder("")
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestIndex_RemoveFolder_DropsFromSearchAndRecent(t *testing.T) {
	root := t.TempDir()
	col := newTestCollection(t, root)
	idx := New(col, IngestOptions{}, logger.New())

	_, err := idx.ListFolder("")
	require.NoError(t, err)
	require.NoError(t, idx.RemoveFolder(""))

	assert.Empty(t, idx.RecentFolders())
}
