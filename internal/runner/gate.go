package runner

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds how many units of work run at once. Every successful Acquire
// must be matched by exactly one Release.
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}

// SemaphoreGate is a Gate backed by a weighted semaphore. Waiters are served
// in FIFO order and block without spinning.
type SemaphoreGate struct {
	sem      *semaphore.Weighted
	capacity int
}

// NewGate returns a SemaphoreGate admitting up to capacity holders. Capacity
// below 1 is treated as 1.
func NewGate(capacity int) *SemaphoreGate {
	if capacity < 1 {
		capacity = 1
	}
	return &SemaphoreGate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *SemaphoreGate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release frees a slot taken by Acquire.
func (g *SemaphoreGate) Release() {
	g.sem.Release(1)
}

// Capacity returns the maximum number of concurrent holders.
func (g *SemaphoreGate) Capacity() int {
	return g.capacity
}
