package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrejsika/audioserve-go/pkg/kvstore"
)

func TestNewRegistry_AssignsIDsByOrder(t *testing.T) {
	mgr := kvstore.NewManager(t.TempDir())
	defer mgr.CloseAll()

	specs := []Spec{
		{Root: t.TempDir()},
		{Root: t.TempDir(), NoCache: true},
	}
	r, err := NewRegistry(specs, mgr)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Count())
	c0, err := r.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 0, c0.ID)

	c1, err := r.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1, c1.ID)
	assert.True(t, c1.NoCache)
}

func TestRegistry_Get_OutOfRange(t *testing.T) {
	mgr := kvstore.NewManager(t.TempDir())
	defer mgr.CloseAll()

	r, err := NewRegistry([]Spec{{Root: t.TempDir()}}, mgr)
	require.NoError(t, err)

	_, err = r.Get(5)
	assert.Error(t, err)
}

func TestRegistry_Names(t *testing.T) {
	mgr := kvstore.NewManager(t.TempDir())
	defer mgr.CloseAll()

	r, err := NewRegistry([]Spec{{Root: t.TempDir()}}, mgr)
	require.NoError(t, err)

	assert.Len(t, r.Names(), 1)
}
