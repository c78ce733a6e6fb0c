package quiz

import (
	"errors"
	"math"
	"testing"

	"github.com/stemsi/exstem-quiz/internal/model"
)

func sampleQuestions() []model.Question {
	return []model.Question{
		{ID: "1", Prompt: "Q1?", Options: []string{"A", "B", "C"}, CorrectIndex: 0, SelectedIndex: model.Unanswered},
		{ID: "2", Prompt: "Q2?", Options: []string{"A", "B", "C"}, CorrectIndex: 1, SelectedIndex: model.Unanswered},
		{ID: "3", Prompt: "Q3?", Options: []string{"A", "B", "C"}, CorrectIndex: 2, SelectedIndex: model.Unanswered},
	}
}

func newSampleEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(sampleQuestions())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

// answerAll walks the engine forward selecting picks[i] on question i.
func answerAll(t *testing.T, e *Engine, picks ...int) {
	t.Helper()
	for i, pick := range picks {
		if i > 0 {
			if _, ok := e.Next(); !ok {
				t.Fatalf("next from %d returned no question", i-1)
			}
		}
		if !e.SelectAnswer(pick) {
			t.Fatalf("select %d on question %d rejected", pick, i)
		}
	}
}

func TestNewEngineRejectsEmptySet(t *testing.T) {
	_, err := NewEngine(nil)
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestNewEngineRejectsInvalidRecords(t *testing.T) {
	cases := map[string]model.Question{
		"single option":        {Prompt: "Q?", Options: []string{"A"}, CorrectIndex: 0},
		"correct out of range": {Prompt: "Q?", Options: []string{"A", "B"}, CorrectIndex: 2},
		"negative correct":     {Prompt: "Q?", Options: []string{"A", "B"}, CorrectIndex: -1},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewEngine([]model.Question{q})
			if !errors.Is(err, ErrInvalidQuestion) {
				t.Fatalf("expected ErrInvalidQuestion, got %v", err)
			}
		})
	}
}

func TestInitialState(t *testing.T) {
	e := newSampleEngine(t)
	if e.Index() != 0 {
		t.Fatalf("expected index 0, got %d", e.Index())
	}
	if e.Progress() != 0 {
		t.Fatalf("expected progress 0, got %v", e.Progress())
	}
	q, ok := e.Current()
	if !ok || q.ID != "1" || q.Prompt != "Q1?" {
		t.Fatalf("unexpected first question %+v (ok=%v)", q, ok)
	}
	if e.HasAnsweredCurrent() || e.IsComplete() {
		t.Fatalf("fresh engine must have no answers")
	}
}

func TestNewEngineStartsUnansweredRegardlessOfInput(t *testing.T) {
	qs := sampleQuestions()
	qs[0].SelectedIndex = 0
	qs[1].SelectedIndex = 0 // zero value of an untouched record
	e, err := NewEngine(qs)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if e.Answered() != 0 {
		t.Fatalf("expected no answers, got %d", e.Answered())
	}
}

func TestSelectAnswer(t *testing.T) {
	e := newSampleEngine(t)

	if !e.SelectAnswer(1) {
		t.Fatalf("select rejected")
	}
	q, _ := e.Current()
	if q.SelectedIndex != 1 {
		t.Fatalf("expected selection 1, got %d", q.SelectedIndex)
	}

	// Repeating is idempotent, a different pick overwrites.
	e.SelectAnswer(1)
	e.SelectAnswer(2)
	q, _ = e.Current()
	if q.SelectedIndex != 2 {
		t.Fatalf("expected overwritten selection 2, got %d", q.SelectedIndex)
	}

	next, _ := e.Next()
	if next.IsAnswered() {
		t.Fatalf("selection leaked to question %s", next.ID)
	}
}

func TestSelectAnswerOutOfRange(t *testing.T) {
	e := newSampleEngine(t)
	for _, idx := range []int{-1, 3, 100} {
		if e.SelectAnswer(idx) {
			t.Fatalf("index %d should be rejected", idx)
		}
	}
	if e.HasAnsweredCurrent() {
		t.Fatalf("rejected selection must not be recorded")
	}

	answerAll(t, e, 0, 1, 2)
	if _, ok := e.Next(); ok {
		t.Fatalf("expected no question past the end")
	}
	if e.SelectAnswer(0) {
		t.Fatalf("select past the end should be rejected")
	}
}

func TestProgress(t *testing.T) {
	e := newSampleEngine(t)
	e.SelectAnswer(0)
	if got := e.Progress(); math.Abs(got-100.0/3) > 1e-9 {
		t.Fatalf("expected 33.33%%, got %v", got)
	}
	e.Next()
	e.SelectAnswer(1)
	e.Next()
	e.SelectAnswer(2)
	if got := e.Progress(); got != 100 {
		t.Fatalf("expected 100%%, got %v", got)
	}
}

func TestNext(t *testing.T) {
	e := newSampleEngine(t)

	q, ok := e.Next()
	if !ok || q.ID != "2" || e.Index() != 1 {
		t.Fatalf("expected question 2 at index 1, got %+v index %d", q, e.Index())
	}
	e.Next()
	if _, ok := e.Next(); ok {
		t.Fatalf("expected no question after the last")
	}
	if e.Index() != 3 {
		t.Fatalf("expected cursor past the end at 3, got %d", e.Index())
	}
	if _, ok := e.Current(); ok {
		t.Fatalf("current past the end must report no question")
	}

	// Further calls do not run the cursor away.
	e.Next()
	if e.Index() != 3 {
		t.Fatalf("cursor moved beyond Len: %d", e.Index())
	}
	if q, ok := e.Previous(); !ok || q.ID != "3" {
		t.Fatalf("expected to step back onto the last question, got %+v", q)
	}
}

func TestPrevious(t *testing.T) {
	e := newSampleEngine(t)

	if _, ok := e.Previous(); ok {
		t.Fatalf("expected no question before the first")
	}
	if e.Index() != 0 {
		t.Fatalf("cursor must stay at 0, got %d", e.Index())
	}

	e.Next()
	e.Next()
	q, ok := e.Previous()
	if !ok || q.ID != "2" || e.Index() != 1 {
		t.Fatalf("expected question 2 at index 1, got %+v index %d", q, e.Index())
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		name  string
		picks []int
		want  int
	}{
		{"none correct", []int{2, 2, 1}, 0},
		{"two correct", []int{0, 1, 1}, 2},
		{"all correct", []int{0, 1, 2}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newSampleEngine(t)
			answerAll(t, e, tc.picks...)
			if got := e.Score(); got != tc.want {
				t.Fatalf("expected score %d, got %d", tc.want, got)
			}
		})
	}
}

func TestReset(t *testing.T) {
	e := newSampleEngine(t)
	answerAll(t, e, 0, 1)

	e.Reset()

	if e.Index() != 0 {
		t.Fatalf("expected index 0, got %d", e.Index())
	}
	if e.Progress() != 0 {
		t.Fatalf("expected progress 0, got %v", e.Progress())
	}
	for _, q := range e.Questions() {
		if q.SelectedIndex != model.Unanswered {
			t.Fatalf("question %s still answered", q.ID)
		}
	}
}

func TestIsComplete(t *testing.T) {
	e := newSampleEngine(t)
	if e.IsComplete() {
		t.Fatalf("no answers yet")
	}
	answerAll(t, e, 0, 1)
	if e.IsComplete() {
		t.Fatalf("two of three answered")
	}
	e.Next()
	e.SelectAnswer(2)
	if !e.IsComplete() {
		t.Fatalf("all answered")
	}
}

func TestIsCompleteIsOrderIndependent(t *testing.T) {
	e := newSampleEngine(t)
	e.Next()
	e.Next()
	e.SelectAnswer(0)
	e.Previous()
	e.SelectAnswer(0)
	if e.IsComplete() {
		t.Fatalf("first question still open")
	}
	e.Previous()
	e.SelectAnswer(0)
	if !e.IsComplete() {
		t.Fatalf("expected complete after answering in reverse")
	}
}

func TestHasAnsweredCurrentAndIsSelected(t *testing.T) {
	e := newSampleEngine(t)
	if e.IsSelected(0) || e.IsSelected(1) {
		t.Fatalf("nothing selected yet")
	}
	if e.IsSelected(model.Unanswered) {
		t.Fatalf("the sentinel is never a selection")
	}

	e.SelectAnswer(0)
	if !e.HasAnsweredCurrent() || !e.IsSelected(0) {
		t.Fatalf("expected option 0 selected")
	}
	e.SelectAnswer(2)
	if e.IsSelected(0) || !e.IsSelected(2) {
		t.Fatalf("expected selection to move to option 2")
	}

	e.Next()
	if e.HasAnsweredCurrent() {
		t.Fatalf("second question not answered")
	}
	e.Previous()
	if !e.IsSelected(2) {
		t.Fatalf("selection lost across navigation")
	}
}

func TestBoundaryPredicates(t *testing.T) {
	e := newSampleEngine(t)
	steps := []struct {
		first, last bool
	}{
		{true, false},
		{false, false},
		{false, true},
		{false, true}, // past the end
	}
	for i, want := range steps {
		if i > 0 {
			e.Next()
		}
		if e.IsFirst() != want.first || e.IsLast() != want.last {
			t.Fatalf("index %d: got first=%v last=%v, want %+v", e.Index(), e.IsFirst(), e.IsLast(), want)
		}
	}

	single, err := NewEngine(sampleQuestions()[:1])
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if !single.IsFirst() || !single.IsLast() {
		t.Fatalf("a single question is both first and last")
	}
}

func TestDataIsolation(t *testing.T) {
	source := sampleQuestions()
	a, err := NewEngine(source)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	b, err := NewEngine(source)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	a.SelectAnswer(1)

	if source[0].SelectedIndex != model.Unanswered {
		t.Fatalf("source record mutated: %d", source[0].SelectedIndex)
	}
	if b.HasAnsweredCurrent() {
		t.Fatalf("selection leaked into a sibling engine")
	}

	source[0].Options[0] = "changed"
	q, _ := a.Current()
	if q.Options[0] != "A" {
		t.Fatalf("engine shares option storage with the source")
	}

	q.Options[1] = "changed"
	again, _ := a.Current()
	if again.Options[1] != "B" {
		t.Fatalf("Current exposes engine storage")
	}
}
