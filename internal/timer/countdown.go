// Package timer implements the exam countdown: a remaining-seconds counter
// decremented once per tick of a pluggable Scheduler.
package timer

import (
	"errors"
	"sync"
	"time"
)

// ErrNegativeDuration is returned for a countdown of less than zero seconds.
var ErrNegativeDuration = errors.New("timer: duration must not be negative")

// DefaultInterval is the wall-clock length of one tick.
const DefaultInterval = time.Second

// Options configures a Countdown.
type Options struct {
	// Duration is the countdown length in seconds.
	Duration int
	// OnTick receives the remaining time after each decrement that leaves
	// time on the clock.
	OnTick func(minutes, seconds int)
	// OnComplete runs once when the remaining time reaches zero.
	OnComplete func()
	// Scheduler defaults to TickerScheduler.
	Scheduler Scheduler
	// Interval defaults to DefaultInterval.
	Interval time.Duration
}

// Countdown is a start/stop/reset timer counting whole seconds down to zero.
//
// Every tick decrements the remaining time first. OnTick fires only while
// time remains afterwards; the tick that reaches zero stops the countdown and
// fires OnComplete instead. A countdown of N seconds therefore reports N-1
// ticks followed by one completion.
type Countdown struct {
	mu         sync.Mutex
	scheduler  Scheduler
	interval   time.Duration
	onTick     func(minutes, seconds int)
	onComplete func()

	total     int
	remaining int
	running   bool
	cancel    func()
	// generation invalidates ticks from a cancelled registration.
	generation uint64
}

// New builds a stopped countdown.
func New(opts Options) (*Countdown, error) {
	if opts.Duration < 0 {
		return nil, ErrNegativeDuration
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Countdown{
		scheduler:  opts.Scheduler,
		interval:   opts.Interval,
		onTick:     opts.OnTick,
		onComplete: opts.OnComplete,
		total:      opts.Duration,
		remaining:  opts.Duration,
	}, nil
}

// Start begins ticking. It is a no-op while already running.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.generation++
	gen := c.generation
	c.cancel = c.scheduler.Every(c.interval, func() { c.tick(gen) })
}

// Stop pauses the countdown, keeping the remaining time. It is a no-op when
// not running.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Reset stops the countdown and restores the original duration.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = c.total
}

// ResetTo stops the countdown and makes seconds the new duration.
// Negative values are treated as zero.
func (c *Countdown) ResetTo(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.total = seconds
	c.remaining = seconds
}

// Running reports whether the countdown is ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Remaining returns the seconds left on the clock.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Total returns the countdown length in seconds.
func (c *Countdown) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Elapsed returns the time used so far as whole minutes and seconds.
func (c *Countdown) Elapsed() (minutes, seconds int) {
	c.mu.Lock()
	used := c.total - c.remaining
	c.mu.Unlock()
	return used / 60, used % 60
}

// ElapsedSeconds returns the time used so far in seconds.
func (c *Countdown) ElapsedSeconds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total - c.remaining
}

func (c *Countdown) stopLocked() {
	if !c.running {
		return
	}
	c.running = false
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if !c.running || gen != c.generation {
		c.mu.Unlock()
		return
	}

	if c.remaining > 0 {
		c.remaining--
	}
	remaining := c.remaining

	if remaining > 0 {
		onTick := c.onTick
		c.mu.Unlock()
		if onTick != nil {
			onTick(remaining/60, remaining%60)
		}
		return
	}

	c.stopLocked()
	onComplete := c.onComplete
	c.mu.Unlock()
	if onComplete != nil {
		onComplete()
	}
}
