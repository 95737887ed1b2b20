package transcode

import (
	"context"
	"time"
)

// permitWait bounds how long a request waits for a transcoding permit
// before failing busy (§5 "Timeouts": "Transcoder permit wait: small (0-2s)
// before returning busy").
const permitWait = 2 * time.Second

// Semaphore bounds concurrent transcoder children to admission.max_parallel
// permits (§4.B "Admission control").
type Semaphore struct {
	permits chan struct{}
}

// NewSemaphore returns a Semaphore with n permits.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		n = 1
	}
	return &Semaphore{permits: make(chan struct{}, n)}
}

// Acquire blocks until a permit is free, ctx is cancelled, or permitWait
// elapses. It returns a release func and true on success, or false if no
// permit became available in time.
func (s *Semaphore) Acquire(ctx context.Context) (func(), bool) {
	ctx, cancel := context.WithTimeout(ctx, permitWait)
	defer cancel()

	select {
	case s.permits <- struct{}{}:
		return func() { <-s.permits }, true
	case <-ctx.Done():
		return nil, false
	}
}

// InUse returns the number of permits currently held, for diagnostics.
func (s *Semaphore) InUse() int {
	return len(s.permits)
}

// Capacity returns the total number of permits.
func (s *Semaphore) Capacity() int {
	return cap(s.permits)
}
