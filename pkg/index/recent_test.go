package index

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecentRing_OrdersByMTimeDescending(t *testing.T) {
	r := NewRecentRing()
	r.Update("a", 100)
	r.Update("b", 300)
	r.Update("c", 200)

	assert.Equal(t, []string{"b", "c", "a"}, r.Top(10))
}

func TestRecentRing_CapsAt64(t *testing.T) {
	r := NewRecentRing()
	for i := 0; i < 70; i++ {
		r.Update("folder-"+strconv.Itoa(i), int64(i))
	}
	assert.LessOrEqual(t, len(r.Top(1000)), 64)
}

func TestRecentRing_EvictsOldestWhenFull(t *testing.T) {
	r := NewRecentRing()
	for i := 0; i < 64; i++ {
		r.Update("folder-"+strconv.Itoa(i), int64(i))
	}
	r.Update("new", 1000)

	top := r.Top(64)
	assert.Contains(t, top, "new")
	assert.NotContains(t, top, "folder-0")
}

func TestRecentRing_Remove(t *testing.T) {
	r := NewRecentRing()
	r.Update("a", 1)
	r.Remove("a")
	assert.Empty(t, r.Top(10))
}
