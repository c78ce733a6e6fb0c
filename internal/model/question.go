package model

// Unanswered is the SelectedIndex of a question no option has been picked for.
const Unanswered = -1

// Question is a single multiple-choice record of the question bank.
// CorrectIndex is fixed once loaded; SelectedIndex is the only mutable field.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Prompt        string   `json:"question" yaml:"question" validate:"required,max=2000"`
	Options       []string `json:"answers" yaml:"answers" validate:"min=2,max=26,dive,required"`
	CorrectIndex  int      `json:"correct" yaml:"correct" validate:"gte=0"`
	SelectedIndex int      `json:"-" yaml:"-"`
}

// IsAnswered reports whether an option has been selected.
func (q Question) IsAnswered() bool {
	return q.SelectedIndex != Unanswered
}

// IsCorrect reports whether the selected option is the correct one.
func (q Question) IsCorrect() bool {
	return q.IsAnswered() && q.SelectedIndex == q.CorrectIndex
}

// HasOption reports whether index addresses one of the options.
func (q Question) HasOption(index int) bool {
	return index >= 0 && index < len(q.Options)
}

// QuestionView is a question as sent to the player (no correct answer).
type QuestionView struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"question"`
	Options  []string `json:"answers"`
	Selected *int     `json:"selected,omitempty"`
}

// NewQuestionView strips the answer key from q.
func NewQuestionView(q Question) QuestionView {
	v := QuestionView{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Options: append([]string(nil), q.Options...),
	}
	if q.IsAnswered() {
		sel := q.SelectedIndex
		v.Selected = &sel
	}
	return v
}
