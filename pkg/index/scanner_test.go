package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullScan_IndexesEveryDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Author"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "Author", "Book"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Author", "Book", "01.mp3"), []byte("x"), 0o644))

	col := newTestCollection(t, root)
	idx := New(col, IngestOptions{}, logger.New())

	require.NoError(t, FullScan(idx))

	record, err := idx.ListFolder("Author/Book")
	require.NoError(t, err)
	require.Len(t, record.Files, 1)

	record, err = idx.ListFolder("")
	require.NoError(t, err)
	require.Len(t, record.Subfolders, 1)
}

func TestVerificationWalk_RemovesVanishedFolder(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "Gone")
	require.NoError(t, os.Mkdir(sub, 0o755))

	col := newTestCollection(t, root)
	idx := New(col, IngestOptions{}, logger.New())
	require.NoError(t, FullScan(idx))

	require.NoError(t, os.RemoveAll(sub))
	require.NoError(t, VerificationWalk(idx))

	_, err := idx.Collection.Store.GetJSON([]byte("folders"), []byte("Gone"), &FolderRecord{})
	assert.Error(t, err)
}

func TestVerificationWalk_ReingestsChangedFolder(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "Changed")
	require.NoError(t, os.Mkdir(sub, 0o755))

	col := newTestCollection(t, root)
	idx := New(col, IngestOptions{}, logger.New())
	require.NoError(t, FullScan(idx))

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "01.mp3"), []byte("x"), 0o644))
	newTime := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(sub, newTime, newTime))

	require.NoError(t, VerificationWalk(idx))

	record, err := idx.ListFolder("Changed")
	require.NoError(t, err)
	assert.Len(t, record.Files, 1)
}
