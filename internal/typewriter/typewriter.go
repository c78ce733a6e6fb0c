// Package typewriter holds the reveal state of a heading typed out one rune
// at a time. Rendering and scheduling belong to the caller.
package typewriter

import "time"

// DefaultSpeed is the delay between two revealed runes.
const DefaultSpeed = 20 * time.Millisecond

// Typewriter reveals its text once. A second Start is ignored, so a heading
// rendered again keeps its full text instead of retyping.
type Typewriter struct {
	text          []rune
	shown         int
	speed         time.Duration
	reducedMotion bool
	started       bool
}

// New returns a typewriter for text. A non-positive speed uses DefaultSpeed.
func New(text string, speed time.Duration, reducedMotion bool) *Typewriter {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	return &Typewriter{
		text:          []rune(text),
		speed:         speed,
		reducedMotion: reducedMotion,
	}
}

// Start begins typing and reveals the first rune, or the whole text under
// reduced motion. It returns false if typing already started.
func (t *Typewriter) Start() bool {
	if t.started {
		return false
	}
	t.started = true

	if t.reducedMotion {
		t.shown = len(t.text)
		return true
	}
	t.Advance()
	return true
}

// Advance reveals one more rune. It returns false when nothing was left to reveal
// or typing has not started.
func (t *Typewriter) Advance() bool {
	if !t.started || t.shown >= len(t.text) {
		return false
	}
	t.shown++
	return true
}

// Visible returns the revealed prefix.
func (t *Typewriter) Visible() string {
	return string(t.text[:t.shown])
}

// Done reports whether the whole text is visible.
func (t *Typewriter) Done() bool {
	return t.started && t.shown >= len(t.text)
}

func (t *Typewriter) Started() bool { return t.started }

func (t *Typewriter) Speed() time.Duration { return t.speed }

func (t *Typewriter) ReducedMotion() bool { return t.reducedMotion }
