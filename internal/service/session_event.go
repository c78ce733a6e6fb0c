package service

import "github.com/stemsi/exstem-quiz/internal/model"

// EventType names a session event.
type EventType string

const (
	// EventState carries the full view after any change.
	EventState EventType = "state"
	// EventTick carries the remaining exam time.
	EventTick EventType = "tick"
	// EventCompleted carries the result of a finished session.
	EventCompleted EventType = "completed"
)

// Event is pushed to session subscribers.
type Event struct {
	Type      EventType
	View      *model.SessionView
	Remaining *model.Clock
	Result    *model.Result
}

// broadcastLocked delivers e to every subscriber without blocking. The
// caller holds sess.mu.
func broadcastLocked(sess *session, e Event) {
	for _, ch := range sess.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
