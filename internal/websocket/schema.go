package websocket

import (
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionBegin    Action = "begin"
	ActionSelect   Action = "select"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionSubmit   Action = "submit"
	ActionRetake   Action = "retake"
	ActionPing     Action = "ping"
)

// Request is one client message. Index is only read for ActionSelect.
type Request struct {
	Action Action `json:"action"`
	Index  *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventTick      Event = "tick"
	EventCompleted Event = "completed"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

type StateResponse struct {
	Event   Event              `json:"event"`
	Session *model.SessionView `json:"session"`
}

type TickResponse struct {
	Event     Event       `json:"event"`
	Remaining model.Clock `json:"remaining"`
}

type CompletedResponse struct {
	Event  Event         `json:"event"`
	Result *model.Result `json:"result"`
}

type ErrorResponse struct {
	Event Event               `json:"event"`
	Error *response.ErrorBody `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
