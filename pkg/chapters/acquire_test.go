package chapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_PrefersSiblingCSV(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "book.m4b")
	require.NoError(t, os.WriteFile(bookPath, []byte{}, 0o644))
	require.NoError(t, os.WriteFile(SiblingCSVPath(bookPath), []byte("title,start,end\nIntro,0,10\n"), 0o644))

	entries, err := Acquire(nil, bookPath, 60000, []ContainerChapter{{Title: "From container", EndMS: 60000}}, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Intro", entries[0].Title)
}

func TestAcquire_FallsBackToContainerMeta(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "book.m4b")

	entries, err := Acquire(nil, bookPath, 60000, []ContainerChapter{{Title: "From container", StartMS: 0, EndMS: 60000}}, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "From container", entries[0].Title)
}

func TestAcquire_ContainerMetaClampedToDuration(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "book.m4b")

	entries, err := Acquire(nil, bookPath, 1000, []ContainerChapter{{Title: "Over", StartMS: 500, EndMS: 5000}}, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1000), entries[0].EndMS)
}

func TestAcquire_IgnoreContainerMetaFallsThroughToSynthesis(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "book.m4b")

	entries, err := Acquire(nil, bookPath, 3000, []ContainerChapter{{Title: "ignored", EndMS: 3000}}, Options{
		IgnoreContainerMeta: true,
		SynthesizeFromMS:    1000,
		SynthesizeChunkMS:   1000,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestAcquire_NoneAvailable(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "book.m4b")

	entries, err := Acquire(nil, bookPath, 500, nil, Options{})
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestSynthesize_EqualChunks(t *testing.T) {
	entries := Synthesize(2500, 1000)
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Title: "Chapter 1", StartMS: 0, EndMS: 1000}, entries[0])
	assert.Equal(t, Entry{Title: "Chapter 2", StartMS: 1000, EndMS: 2000}, entries[1])
	assert.Equal(t, Entry{Title: "Chapter 3", StartMS: 2000, EndMS: 2500}, entries[2])
}

func TestSynthesize_ZeroChunkReturnsNil(t *testing.T) {
	assert.Nil(t, Synthesize(1000, 0))
}
