package collection

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

func TestNew_NormalizesRootAndOpensStore(t *testing.T) {
	mgr := kvstore.NewManager(t.TempDir())
	defer mgr.CloseAll()

	root := t.TempDir()
	c, err := New(0, root, false, Options{}, mgr)
	require.NoError(t, err)

	assert.Equal(t, 0, c.ID)
	assert.Equal(t, filepath.Base(root), c.Name)
	assert.NotNil(t, c.Store)
}

func TestAbsPath_RelPath_RoundTrip(t *testing.T) {
	mgr := kvstore.NewManager(t.TempDir())
	defer mgr.CloseAll()

	root := t.TempDir()
	c, err := New(0, root, false, Options{}, mgr)
	require.NoError(t, err)

	abs := c.AbsPath("Author/Book/01.mp3")
	rel, err := c.RelPath(abs)
	require.NoError(t, err)
	assert.Equal(t, "Author/Book/01.mp3", rel)
}

func TestAbsPath_EmptyIsRoot(t *testing.T) {
	mgr := kvstore.NewManager(t.TempDir())
	defer mgr.CloseAll()

	root := t.TempDir()
	c, err := New(0, root, false, Options{}, mgr)
	require.NoError(t, err)

	assert.Equal(t, c.Root, c.AbsPath(""))
}
