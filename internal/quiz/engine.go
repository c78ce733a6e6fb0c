// Package quiz holds the question cursor, answer selection and scoring state
// of a single quiz or exam session.
package quiz

import (
	"errors"
	"fmt"

	deepcopy "github.com/tiendc/go-deepcopy"

	"github.com/stemsi/exstem-quiz/internal/model"
)

// ErrNoQuestions is returned when an engine is built from an empty question set.
var ErrNoQuestions = errors.New("quiz: at least one question is required")

// ErrInvalidQuestion marks a question record the engine cannot index safely.
var ErrInvalidQuestion = errors.New("quiz: invalid question")

// Engine tracks navigation, selection, scoring and completion over its own
// copy of a question set. It is not safe for concurrent use.
type Engine struct {
	questions []model.Question
	position  int
}

// NewEngine copies questions and positions the cursor on the first one.
// Every copied question starts unanswered; the caller's slice is never touched.
func NewEngine(questions []model.Question) (*Engine, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	for i, q := range questions {
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("%w: questions[%d] needs at least 2 options, has %d", ErrInvalidQuestion, i, len(q.Options))
		}
		if !q.HasOption(q.CorrectIndex) {
			return nil, fmt.Errorf("%w: questions[%d] correct index %d out of range", ErrInvalidQuestion, i, q.CorrectIndex)
		}
	}

	var owned []model.Question
	if err := deepcopy.Copy(&owned, questions); err != nil {
		return nil, fmt.Errorf("copy questions: %w", err)
	}
	for i := range owned {
		owned[i].SelectedIndex = model.Unanswered
	}

	return &Engine{questions: owned}, nil
}

func (e *Engine) inRange() bool {
	return e.position >= 0 && e.position < len(e.questions)
}

// snapshot returns a copy of the question at position i.
func (e *Engine) snapshot(i int) model.Question {
	q := e.questions[i]
	q.Options = append([]string(nil), q.Options...)
	return q
}

// Current returns the question under the cursor. ok is false when the cursor
// has moved past the last question.
func (e *Engine) Current() (q model.Question, ok bool) {
	if !e.inRange() {
		return model.Question{}, false
	}
	return e.snapshot(e.position), true
}

// SelectAnswer records index as the answer to the current question,
// overwriting any earlier pick. It reports false and changes nothing when
// index is not an option of the current question.
func (e *Engine) SelectAnswer(index int) bool {
	if !e.inRange() || !e.questions[e.position].HasOption(index) {
		return false
	}
	e.questions[e.position].SelectedIndex = index
	return true
}

// Next advances the cursor and returns the new current question. Moving past
// the last question yields ok == false and leaves the cursor at Len().
func (e *Engine) Next() (q model.Question, ok bool) {
	if e.position < len(e.questions) {
		e.position++
	}
	return e.Current()
}

// Previous moves the cursor back one question. At the first question it
// returns ok == false and the cursor stays at 0.
func (e *Engine) Previous() (q model.Question, ok bool) {
	if e.position <= 0 {
		e.position = 0
		return model.Question{}, false
	}
	e.position--
	return e.Current()
}

// Index returns the cursor position.
func (e *Engine) Index() int {
	return e.position
}

// Len returns the number of questions.
func (e *Engine) Len() int {
	return len(e.questions)
}

// Answered returns how many questions have a selection.
func (e *Engine) Answered() int {
	n := 0
	for _, q := range e.questions {
		if q.IsAnswered() {
			n++
		}
	}
	return n
}

// Progress is the answered share of all questions, in percent.
func (e *Engine) Progress() float64 {
	return float64(e.Answered()) / float64(len(e.questions)) * 100
}

// Score counts the questions answered correctly.
func (e *Engine) Score() int {
	n := 0
	for _, q := range e.questions {
		if q.IsCorrect() {
			n++
		}
	}
	return n
}

// Reset moves the cursor to the first question and clears every answer.
func (e *Engine) Reset() {
	e.position = 0
	for i := range e.questions {
		e.questions[i].SelectedIndex = model.Unanswered
	}
}

// IsComplete reports whether every question has been answered.
func (e *Engine) IsComplete() bool {
	return e.Answered() == len(e.questions)
}

// HasAnsweredCurrent reports whether the current question has a selection.
func (e *Engine) HasAnsweredCurrent() bool {
	return e.inRange() && e.questions[e.position].IsAnswered()
}

// IsSelected reports whether index is the current question's selection.
func (e *Engine) IsSelected(index int) bool {
	return e.inRange() && index != model.Unanswered && e.questions[e.position].SelectedIndex == index
}

// IsFirst reports whether the cursor is at (or before) the first question.
func (e *Engine) IsFirst() bool {
	return e.position <= 0
}

// IsLast reports whether the cursor is at (or past) the last question.
func (e *Engine) IsLast() bool {
	return e.position >= len(e.questions)-1
}

// Questions returns a copy of all questions with their current selections.
func (e *Engine) Questions() []model.Question {
	out := make([]model.Question, len(e.questions))
	for i := range e.questions {
		out[i] = e.snapshot(i)
	}
	return out
}
