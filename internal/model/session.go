package model

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects between the untimed quiz and the timed exam.
type Mode string

const (
	ModeQuiz Mode = "quiz"
	ModeExam Mode = "exam"
)

// Timed reports whether sessions of this mode run a countdown.
func (m Mode) Timed() bool {
	return m == ModeExam
}

// SessionStatus enumerates session states.
type SessionStatus string

const (
	SessionStatusReady      SessionStatus = "READY"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// Session is the metadata of one quiz or exam run.
type Session struct {
	ID         uuid.UUID     `json:"id"`
	Mode       Mode          `json:"mode"`
	Status     SessionStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Clock is a minutes/seconds pair for display.
type Clock struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// NewClock splits a number of seconds into minutes and seconds.
func NewClock(totalSeconds int) Clock {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return Clock{Minutes: totalSeconds / 60, Seconds: totalSeconds % 60}
}

// SessionView is everything a renderer needs to draw the current screen.
type SessionView struct {
	Session
	Index           int           `json:"index"`
	Total           int           `json:"total"`
	Question        *QuestionView `json:"question,omitempty"`
	Progress        float64       `json:"progress"`
	IsFirst         bool          `json:"is_first"`
	IsLast          bool          `json:"is_last"`
	AnsweredCurrent bool          `json:"answered_current"`
	IsComplete      bool          `json:"is_complete"`
	Remaining       *Clock        `json:"remaining,omitempty"`
	Result          *Result       `json:"result,omitempty"`
}

// StartSessionRequest is the payload for starting a quiz or exam.
type StartSessionRequest struct {
	Mode Mode `json:"mode" binding:"required,oneof=quiz exam"`
}

// SelectAnswerRequest is the payload for picking an option of the current question.
type SelectAnswerRequest struct {
	Index *int `json:"index" binding:"required,min=0,max=25"`
}
