package domain

import (
	"context"
	"fmt"
	"math"
)

// Question is a multiple-choice question with exactly one correct option.
type Question struct {
	Prompt  string   `json:"prompt" yaml:"prompt" validate:"required"`
	Options []string `json:"options" yaml:"options" validate:"required,min=2,dive,required"`
	Correct string   `json:"-" yaml:"correct" validate:"required"`
}

// QuestionBank is an immutable ordered sequence of questions.
type QuestionBank struct {
	questions []Question
}

// NewQuestionBank copies questions and checks that every question is answerable.
func NewQuestionBank(questions []Question) (*QuestionBank, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	copied := make([]Question, len(questions))
	for i, q := range questions {
		if q.Prompt == "" {
			return nil, fmt.Errorf("question %d: prompt is required", i+1)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d: at least two options are required", i+1)
		}

		seen := make(map[string]bool, len(q.Options))
		hasCorrect := false
		for _, opt := range q.Options {
			if seen[opt] {
				return nil, fmt.Errorf("question %d: duplicate option %q", i+1, opt)
			}
			seen[opt] = true
			if opt == q.Correct {
				hasCorrect = true
			}
		}
		if !hasCorrect {
			return nil, fmt.Errorf("question %d: correct option %q is not among the options", i+1, q.Correct)
		}

		copied[i] = Question{
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
			Correct: q.Correct,
		}
	}

	return &QuestionBank{questions: copied}, nil
}

// Len returns the number of questions.
func (b *QuestionBank) Len() int {
	return len(b.questions)
}

// At returns a copy of the i-th question.
func (b *QuestionBank) At(i int) Question {
	q := b.questions[i]
	q.Options = append([]string(nil), q.Options...)
	return q
}

// HasOption reports whether option belongs to the i-th question.
func (b *QuestionBank) HasOption(i int, option string) bool {
	for _, opt := range b.questions[i].Options {
		if opt == option {
			return true
		}
	}
	return false
}

// IsCorrect compares option with the designated answer. Case-sensitive, no trimming.
func (b *QuestionBank) IsCorrect(i int, option string) bool {
	return b.questions[i].Correct == option
}

// QuizProgress is owned by the quiz flow and reset on every start.
type QuizProgress struct {
	QuestionIndex  int    `json:"question_index"`
	SelectedOption string `json:"selected_option,omitempty"`
	Score          int    `json:"score"`
}

// QuizResult is the final score of a finished quiz.
type QuizResult struct {
	Score     int    `json:"score"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Confirmed bool   `json:"confirmed"`
	Warning   string `json:"warning,omitempty"`
}

// NewQuizResult computes the rounded percentage of correct answers.
func NewQuizResult(score, total int) QuizResult {
	r := QuizResult{Score: score, Total: total}
	if total > 0 {
		r.Percent = int(math.Round(float64(score) / float64(total) * 100))
	}
	return r
}

// QuizView is what the quiz screen renders.
type QuizView struct {
	QuestionIndex  int         `json:"question_index"`
	Total          int         `json:"total"`
	Prompt         string      `json:"prompt,omitempty"`
	Options        []string    `json:"options,omitempty"`
	SelectedOption string      `json:"selected_option,omitempty"`
	Score          int         `json:"score"`
	CanAdvance     bool        `json:"can_advance"`
	Finished       bool        `json:"finished"`
	Result         *QuizResult `json:"result,omitempty"`
}

type QuizUsecase interface {
	Start()
	View() QuizView
	SelectOption(option string) (QuizView, error)
	Advance() (QuizView, error)
	Confirm(ctx context.Context) (QuizResult, error)
}
