package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirName_StableAndIncludesLastSegment(t *testing.T) {
	name := DirName("/media/Audiobooks")
	assert.Contains(t, name, "Audiobooks_")
	assert.Equal(t, name, DirName("/media/Audiobooks"))
	assert.NotEqual(t, name, DirName("/media/Other"))
}

func TestManager_OpenIsIdempotentPerID(t *testing.T) {
	m := NewManager(t.TempDir())
	defer m.CloseAll()

	s1, err := m.Open(0, "/media/Audiobooks")
	require.NoError(t, err)
	s2, err := m.Open(0, "/media/Audiobooks")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestManager_CloseIsolatesOneCollection(t *testing.T) {
	m := NewManager(t.TempDir())
	defer m.CloseAll()

	_, err := m.Open(0, "/media/A")
	require.NoError(t, err)
	_, err = m.Open(1, "/media/B")
	require.NoError(t, err)

	require.NoError(t, m.Close(0))
	assert.Nil(t, m.Get(0))
	assert.NotNil(t, m.Get(1))
}
