package drivekit

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Scheduler decides where a subscribed Call executes.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule implements Scheduler
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

var (
	// Immediate runs work on the subscribing goroutine.
	Immediate Scheduler = SchedulerFunc(func(fn func()) { fn() })
	// Background runs each piece of work on its own goroutine.
	Background Scheduler = SchedulerFunc(func(fn func()) { go fn() })
)

// BoundedScheduler runs work on goroutines, at most n at a time.
type BoundedScheduler struct {
	sem *semaphore.Weighted
}

// NewBoundedScheduler creates a scheduler running at most n calls concurrently.
func NewBoundedScheduler(n int64) *BoundedScheduler {
	if n < 1 {
		n = 1
	}
	return &BoundedScheduler{sem: semaphore.NewWeighted(n)}
}

// Schedule implements Scheduler
func (s *BoundedScheduler) Schedule(fn func()) {
	go func() {
		// Acquire with a background context never fails.
		_ = s.sem.Acquire(context.Background(), 1)
		defer s.sem.Release(1)
		fn()
	}()
}
