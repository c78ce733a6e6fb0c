package timer_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stemsi/exstem-quiz/internal/testutil"
	"github.com/stemsi/exstem-quiz/internal/timer"
)

type tickRecord struct {
	minutes, seconds int
}

// recorder collects countdown callbacks.
type recorder struct {
	mu        sync.Mutex
	ticks     []tickRecord
	completed int
}

func (r *recorder) onTick(minutes, seconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, tickRecord{minutes, seconds})
}

func (r *recorder) onComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recorder) tickCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

func newCountdown(t *testing.T, duration int) (*timer.Countdown, *testutil.ManualScheduler, *recorder) {
	t.Helper()
	sched := testutil.NewManualScheduler()
	rec := &recorder{}
	c, err := timer.New(timer.Options{
		Duration:   duration,
		OnTick:     rec.onTick,
		OnComplete: rec.onComplete,
		Scheduler:  sched,
	})
	if err != nil {
		t.Fatalf("new countdown: %v", err)
	}
	return c, sched, rec
}

func TestNewRejectsNegativeDuration(t *testing.T) {
	_, err := timer.New(timer.Options{Duration: -1})
	if !errors.Is(err, timer.ErrNegativeDuration) {
		t.Fatalf("expected ErrNegativeDuration, got %v", err)
	}
}

func TestInitialState(t *testing.T) {
	c, _, _ := newCountdown(t, 60)
	if c.Running() {
		t.Fatalf("new countdown must be stopped")
	}
	if m, s := c.Elapsed(); m != 0 || s != 0 {
		t.Fatalf("expected 0:00 elapsed, got %d:%02d", m, s)
	}
	if c.Remaining() != 60 {
		t.Fatalf("expected 60 remaining, got %d", c.Remaining())
	}
}

func TestTickReportsRemainingMinutesAndSeconds(t *testing.T) {
	cases := []struct {
		duration int
		want     tickRecord
	}{
		{60, tickRecord{0, 59}},
		{125, tickRecord{2, 4}},
	}
	for _, tc := range cases {
		c, sched, rec := newCountdown(t, tc.duration)
		c.Start()
		if !c.Running() {
			t.Fatalf("expected running after start")
		}
		sched.Advance(time.Second)
		if len(rec.ticks) != 1 || rec.ticks[0] != tc.want {
			t.Fatalf("duration %d: expected tick %+v, got %+v", tc.duration, tc.want, rec.ticks)
		}
	}
}

func TestTicksDecreaseOncePerSecond(t *testing.T) {
	c, sched, rec := newCountdown(t, 60)
	c.Start()
	sched.Advance(3 * time.Second)

	want := []tickRecord{{0, 59}, {0, 58}, {0, 57}}
	if len(rec.ticks) != len(want) {
		t.Fatalf("expected %d ticks, got %+v", len(want), rec.ticks)
	}
	for i := range want {
		if rec.ticks[i] != want[i] {
			t.Fatalf("tick %d: expected %+v, got %+v", i, want[i], rec.ticks[i])
		}
	}
}

func TestStartTwiceRegistersOnce(t *testing.T) {
	c, sched, rec := newCountdown(t, 60)
	c.Start()
	c.Start()
	if sched.Active() != 1 {
		t.Fatalf("expected one registration, got %d", sched.Active())
	}
	sched.Advance(time.Second)
	if rec.tickCount() != 1 {
		t.Fatalf("expected one tick, got %d", rec.tickCount())
	}
}

func TestStopHaltsTicksAndKeepsElapsed(t *testing.T) {
	c, sched, rec := newCountdown(t, 120)
	c.Start()
	sched.Advance(5 * time.Second)
	c.Stop()
	sched.Advance(3 * time.Second)

	if c.Running() {
		t.Fatalf("expected stopped")
	}
	if rec.tickCount() != 5 {
		t.Fatalf("expected 5 ticks, got %d", rec.tickCount())
	}
	if sched.Active() != 0 {
		t.Fatalf("stop must cancel the registration")
	}
	if m, s := c.Elapsed(); m != 0 || s != 5 {
		t.Fatalf("expected 0:05 elapsed, got %d:%02d", m, s)
	}
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	c, _, _ := newCountdown(t, 60)
	c.Stop()
	if c.Running() || c.Remaining() != 60 {
		t.Fatalf("idle stop changed state")
	}
}

func TestReset(t *testing.T) {
	c, sched, rec := newCountdown(t, 60)
	c.Start()
	sched.Advance(10 * time.Second)
	c.Reset()

	if c.Running() {
		t.Fatalf("reset must stop the countdown")
	}
	if m, s := c.Elapsed(); m != 0 || s != 0 {
		t.Fatalf("expected 0:00 elapsed after reset, got %d:%02d", m, s)
	}

	sched.Advance(2 * time.Second)
	if rec.tickCount() != 10 {
		t.Fatalf("ticks continued after reset: %d", rec.tickCount())
	}
}

func TestResetToNewDuration(t *testing.T) {
	c, sched, _ := newCountdown(t, 60)
	c.Start()
	sched.Advance(5 * time.Second)
	c.ResetTo(30)
	if c.Remaining() != 30 || c.Total() != 30 {
		t.Fatalf("expected 30/30, got %d/%d", c.Remaining(), c.Total())
	}

	c.Start()
	sched.Advance(2 * time.Second)
	if m, s := c.Elapsed(); m != 0 || s != 2 {
		t.Fatalf("expected 0:02 elapsed, got %d:%02d", m, s)
	}

	c.Reset()
	if c.Remaining() != 30 {
		t.Fatalf("reset must restore the replaced duration, got %d", c.Remaining())
	}
}

func TestCompletion(t *testing.T) {
	c, sched, rec := newCountdown(t, 3)
	c.Start()
	sched.Advance(3 * time.Second)

	if rec.completed != 1 {
		t.Fatalf("expected one completion, got %d", rec.completed)
	}
	want := []tickRecord{{0, 2}, {0, 1}}
	if len(rec.ticks) != 2 || rec.ticks[0] != want[0] || rec.ticks[1] != want[1] {
		t.Fatalf("expected ticks %+v, got %+v", want, rec.ticks)
	}
	if c.Running() {
		t.Fatalf("expected stopped after completion")
	}

	sched.Advance(5 * time.Second)
	if rec.completed != 1 || rec.tickCount() != 2 {
		t.Fatalf("callbacks fired after completion: ticks=%d completed=%d", rec.tickCount(), rec.completed)
	}
	if m, s := c.Elapsed(); m != 0 || s != 3 {
		t.Fatalf("expected 0:03 elapsed, got %d:%02d", m, s)
	}
}

func TestZeroDurationCompletesOnFirstTick(t *testing.T) {
	c, sched, rec := newCountdown(t, 0)
	c.Start()
	sched.Advance(time.Second)

	if rec.completed != 1 {
		t.Fatalf("expected one completion, got %d", rec.completed)
	}
	if rec.tickCount() != 0 {
		t.Fatalf("expected no ticks, got %d", rec.tickCount())
	}
	if c.Running() {
		t.Fatalf("expected stopped")
	}
}

func TestMissingCallbacks(t *testing.T) {
	sched := testutil.NewManualScheduler()
	c, err := timer.New(timer.Options{Duration: 5, Scheduler: sched})
	if err != nil {
		t.Fatalf("new countdown: %v", err)
	}
	c.Start()
	sched.Advance(5 * time.Second)
	if c.Running() || c.Remaining() != 0 {
		t.Fatalf("expected silent completion")
	}
}

func TestElapsedAccumulates(t *testing.T) {
	cases := []struct {
		duration, advance int
		minutes, seconds  int
	}{
		{300, 125, 2, 5},
		{600, 275, 4, 35},
	}
	for _, tc := range cases {
		c, sched, _ := newCountdown(t, tc.duration)
		c.Start()
		sched.Advance(time.Duration(tc.advance) * time.Second)
		if m, s := c.Elapsed(); m != tc.minutes || s != tc.seconds {
			t.Fatalf("expected %d:%02d, got %d:%02d", tc.minutes, tc.seconds, m, s)
		}
	}
}

func TestStartStopStartCycle(t *testing.T) {
	c, sched, rec := newCountdown(t, 60)
	c.Start()
	sched.Advance(2 * time.Second)
	c.Stop()
	c.Start()
	sched.Advance(2 * time.Second)
	if rec.tickCount() != 4 {
		t.Fatalf("expected 4 ticks, got %d", rec.tickCount())
	}
}

func TestCallbacksMayControlTheCountdown(t *testing.T) {
	sched := testutil.NewManualScheduler()
	var c *timer.Countdown
	ticks := 0
	c, err := timer.New(timer.Options{
		Duration:  10,
		Scheduler: sched,
		OnTick: func(_, _ int) {
			ticks++
			if ticks == 2 {
				c.Stop()
			}
		},
	})
	if err != nil {
		t.Fatalf("new countdown: %v", err)
	}
	c.Start()
	sched.Advance(5 * time.Second)
	if ticks != 2 || c.Remaining() != 8 {
		t.Fatalf("expected stop from callback after 2 ticks, got ticks=%d remaining=%d", ticks, c.Remaining())
	}
}

func TestTickerSchedulerCountsDown(t *testing.T) {
	done := make(chan struct{})
	var mu sync.Mutex
	var ticks []int
	c, err := timer.New(timer.Options{
		Duration: 3,
		Interval: 5 * time.Millisecond,
		OnTick: func(_, seconds int) {
			mu.Lock()
			ticks = append(ticks, seconds)
			mu.Unlock()
		},
		OnComplete: func() { close(done) },
	})
	if err != nil {
		t.Fatalf("new countdown: %v", err)
	}
	c.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) != 2 || ticks[0] != 2 || ticks[1] != 1 {
		t.Fatalf("expected ticks [2 1], got %v", ticks)
	}
	if c.Running() {
		t.Fatalf("expected stopped")
	}
}

func TestTickerSchedulerStopPreventsFurtherTicks(t *testing.T) {
	var mu sync.Mutex
	count := 0
	c, err := timer.New(timer.Options{
		Duration: 1000,
		Interval: 2 * time.Millisecond,
		OnTick: func(_, _ int) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("new countdown: %v", err)
	}
	c.Start()
	time.Sleep(20 * time.Millisecond)
	c.Stop()

	mu.Lock()
	stoppedAt := count
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// One tick may already be past the generation check when Stop runs.
	if count > stoppedAt+1 {
		t.Fatalf("ticks kept firing after stop: %d -> %d", stoppedAt, count)
	}
	if c.Remaining() != 1000-count {
		t.Fatalf("remaining %d inconsistent with %d ticks", c.Remaining(), count)
	}
}
