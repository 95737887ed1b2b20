package transcode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphore_AcquireRelease(t *testing.T) {
	sem := NewSemaphore(1)

	release, ok := sem.Acquire(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, sem.InUse())

	release()
	assert.Equal(t, 0, sem.InUse())
}

func TestSemaphore_BusyWhenExhausted(t *testing.T) {
	sem := NewSemaphore(1)

	release, ok := sem.Acquire(context.Background())
	require.True(t, ok)
	defer release()

	start := time.Now()
	_, ok = sem.Acquire(context.Background())
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestSemaphore_RespectsCallerContextCancellation(t *testing.T) {
	sem := NewSemaphore(1)
	release, ok := sem.Acquire(context.Background())
	require.True(t, ok)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok = sem.Acquire(ctx)
	assert.False(t, ok)
}

func TestSemaphore_CapacityReportsConfiguredSize(t *testing.T) {
	sem := NewSemaphore(4)
	assert.Equal(t, 4, sem.Capacity())
}
