package model

import (
	"time"

	"github.com/google/uuid"
)

// FinishReason records why a session ended.
type FinishReason string

const (
	FinishReasonSubmitted FinishReason = "submitted"
	FinishReasonTimeUp    FinishReason = "time_up"
)

// Result is the outcome of a finished session.
type Result struct {
	SessionID      uuid.UUID    `json:"session_id"`
	Mode           Mode         `json:"mode"`
	Score          int          `json:"score"`
	Total          int          `json:"total"`
	Percent        float64      `json:"percent"`
	ElapsedSeconds int          `json:"elapsed_seconds"`
	TimeTaken      Clock        `json:"time_taken"`
	Reason         FinishReason `json:"reason"`
	FinishedAt     time.Time    `json:"finished_at"`
	Review         []ReviewItem `json:"review,omitempty"`
}

// ReviewItem pairs a question with the player's pick and the correct option.
type ReviewItem struct {
	ID       string `json:"id"`
	Prompt   string `json:"question"`
	Selected *int   `json:"selected,omitempty"`
	Correct  int    `json:"correct"`
}

// StoredResult is a result row read back from the ledger.
type StoredResult struct {
	ID             int64        `json:"id"`
	SessionID      uuid.UUID    `json:"session_id"`
	Mode           Mode         `json:"mode"`
	Score          int          `json:"score"`
	Total          int          `json:"total"`
	Percent        float64      `json:"percent"`
	ElapsedSeconds int          `json:"elapsed_seconds"`
	Reason         FinishReason `json:"reason"`
	FinishedAt     time.Time    `json:"finished_at"`
	RecordedAt     time.Time    `json:"recorded_at"`
}
