package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func TestClassifyEntries_BucketsByKind(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "01.mp3", "02.mp3", "cover.jpg", "about.txt", ".hidden")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Sub"), 0o755))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	c := classifyEntries(entries)
	assert.Len(t, c.audio, 2)
	assert.Len(t, c.subdirs, 1)
	assert.Equal(t, "cover.jpg", c.cover)
	assert.Equal(t, "about.txt", c.desc)
}

func TestClassifyEntries_RejectsHiddenAndSigilNames(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, ".DS_Store", "a$$b$$1-2$$.mp3")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	c := classifyEntries(entries)
	assert.Empty(t, c.audio)
}

func TestMatchesCDFolder_DefaultRegex(t *testing.T) {
	assert.True(t, matchesCDFolder("CD1", nil))
	assert.True(t, matchesCDFolder("cd 02", nil))
	assert.False(t, matchesCDFolder("Chapter 1", nil))
}
