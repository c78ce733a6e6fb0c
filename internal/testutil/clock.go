package testutil

import (
	"sync"
	"time"
)

// FakeClock is a wall clock that only moves when told to.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock starts a FakeClock at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time. It matches the signature of time.Now.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the fake time forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Tick advances both the clock and the scheduler by d, keeping the
// countdown and the wall clock in step.
func Tick(clock *FakeClock, sched *ManualScheduler, d time.Duration) {
	clock.Advance(d)
	sched.Advance(d)
}
