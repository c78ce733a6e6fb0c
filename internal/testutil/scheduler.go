// Package testutil holds test doubles shared across packages.
package testutil

import (
	"sync"
	"time"
)

// ManualScheduler is a timer.Scheduler driven by Advance instead of the wall
// clock. Callbacks run synchronously on the goroutine calling Advance.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	entries map[int]*scheduled
}

type scheduled struct {
	id       int
	interval time.Duration
	due      time.Duration
	fn       func()
}

// NewManualScheduler returns a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{entries: map[int]*scheduled{}}
}

// Every registers fn to run each interval of fake time.
func (s *ManualScheduler) Every(interval time.Duration, fn func()) func() {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.entries[id] = &scheduled{id: id, interval: interval, due: s.now + interval, fn: fn}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.entries, id)
	}
}

// Advance moves fake time forward by d, firing every callback that falls due
// in order. Callbacks may cancel registrations or register new ones.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var next *scheduled
		for _, e := range s.entries {
			if e.due > target {
				continue
			}
			if next == nil || e.due < next.due || (e.due == next.due && e.id < next.id) {
				next = e
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.due
		next.due += next.interval
		fn := next.fn
		s.mu.Unlock()

		fn()
	}
}

// Active returns the number of live registrations.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Now returns the fake time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}
