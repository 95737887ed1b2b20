package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrejsika/audioserve-go/pkg/collection"
	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

func newTestCollection(t *testing.T, root string) *collection.Collection {
	mgr := kvstore.NewManager(t.TempDir())
	t.Cleanup(func() { mgr.CloseAll() })
	c, err := collection.New(0, root, false, collection.Options{}, mgr)
	require.NoError(t, err)
	return c
}

func TestIngest_UndecodableAudioDegradesToZeroMeta(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "01.mp3"), []byte("not really audio"), 0o644))

	col := newTestCollection(t, root)
	record, err := Ingest(col, "", IngestOptions{}, logger.New())
	require.NoError(t, err)

	require.Len(t, record.Files, 1)
	assert.Equal(t, "01.mp3", record.Files[0].Name)
	assert.Equal(t, uint32(0), record.Files[0].Meta.DurationSecs)
}

func TestIngest_FindsCoverAndDescription(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "01.mp3"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cover.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "about.txt"), []byte("x"), 0o644))

	col := newTestCollection(t, root)
	record, err := Ingest(col, "", IngestOptions{}, logger.New())
	require.NoError(t, err)

	assert.Equal(t, "cover.jpg", record.Cover)
	assert.Equal(t, "about.txt", record.Description)
}

func TestIngest_Subfolders(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Book One"), 0o755))

	col := newTestCollection(t, root)
	record, err := Ingest(col, "", IngestOptions{}, logger.New())
	require.NoError(t, err)

	require.Len(t, record.Subfolders, 1)
	assert.Equal(t, "Book One", record.Subfolders[0].Name)
	assert.Equal(t, "Book One", record.Subfolders[0].Path)
}

func TestIngest_PromotesUniformTags(t *testing.T) {
	files := []FileEntry{
		{Name: "a.mp3", Tags: map[string]string{"album": "Same"}},
		{Name: "b.mp3", Tags: map[string]string{"album": "Same"}},
	}
	promoted := promoteTags(files)
	assert.Equal(t, map[string]string{"album": "Same"}, promoted)
	assert.Nil(t, files[0].Tags)
	assert.Nil(t, files[1].Tags)
}

func TestIngest_DoesNotPromoteDivergentTags(t *testing.T) {
	files := []FileEntry{
		{Name: "a.mp3", Tags: map[string]string{"album": "One"}},
		{Name: "b.mp3", Tags: map[string]string{"album": "Two"}},
	}
	promoted := promoteTags(files)
	assert.Empty(t, promoted)
	assert.Equal(t, "One", files[0].Tags["album"])
}
