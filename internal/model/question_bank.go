package model

// QuestionBank is the fixed, ordered question set a session is built from.
type QuestionBank struct {
	Version   int        `json:"version" yaml:"version" validate:"eq=1"`
	Title     string     `json:"title" yaml:"title" validate:"required,max=255"`
	Questions []Question `json:"questions" yaml:"questions" validate:"min=1,dive"`
}

// BankInfo describes the loaded bank without revealing its questions.
type BankInfo struct {
	Title               string `json:"title"`
	QuestionCount       int    `json:"question_count"`
	ExamDurationSeconds int    `json:"exam_duration_seconds"`
}
