package domain

import (
	"fmt"
	"math"
	"strings"
)

// MaxQuestions is the largest quiz the study service generates.
const MaxQuestions = 10

// Option is one of the answer letters A-D.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// AllOptions lists the answer letters in display order.
var AllOptions = []Option{OptionA, OptionB, OptionC, OptionD}

// ParseOption accepts a letter in either case, surrounding whitespace ignored.
func ParseOption(s string) (Option, bool) {
	opt := Option(strings.ToUpper(strings.TrimSpace(s)))
	for _, o := range AllOptions {
		if o == opt {
			return opt, true
		}
	}
	return "", false
}

// Question is a single multiple-choice item. Only populated options are kept.
type Question struct {
	Prompt  string            `json:"prompt"`
	Options map[Option]string `json:"options"`
	Correct Option            `json:"-"`
}

func (q Question) HasOption(opt Option) bool {
	_, ok := q.Options[opt]
	return ok
}

// Quiz is the generated quiz for one uploaded section.
type Quiz struct {
	ID        string
	SectionID string
	Taken     bool
	CreatedBy string
	Questions []Question
}

// Validate checks the shape the session relies on.
func (q *Quiz) Validate() error {
	if q == nil || len(q.Questions) == 0 {
		return NewMalformedResponseError("The quiz has no questions.", nil)
	}
	if len(q.Questions) > MaxQuestions {
		return NewMalformedResponseError(fmt.Sprintf("The quiz has %d questions, more than the %d allowed.", len(q.Questions), MaxQuestions), nil)
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Prompt) == "" {
			return NewMalformedResponseError(fmt.Sprintf("Question %d has no prompt.", i+1), nil)
		}
		if !question.HasOption(question.Correct) {
			return NewMalformedResponseError(fmt.Sprintf("Question %d has no valid correct answer.", i+1), nil)
		}
	}
	return nil
}

// SubmittedAnswer is the wire form of one recorded answer. QuestionNo is 1-based.
type SubmittedAnswer struct {
	QuestionNo int    `json:"question_no"`
	Answer     Option `json:"answer"`
}

// ExplanationItem is a server-provided explanation for one question.
type ExplanationItem struct {
	QuestionNumber int    `json:"question_number"`
	YourAnswer     Option `json:"your_answer"`
	CorrectAnswer  Option `json:"correct_answer"`
	Correct        bool   `json:"correct"`
	Explanation    string `json:"explanation"`
}

// TopicItem is a concept summary for the section.
type TopicItem struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// Score is derived from answers and questions on demand.
type Score struct {
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Feedback   string `json:"feedback"`
}

// ComputeScore counts correct answers. Percentage is only set when there are questions.
func ComputeScore(questions []Question, answers map[int]Option) Score {
	score := Score{Total: len(questions)}
	for i, q := range questions {
		if a, ok := answers[i]; ok && a == q.Correct {
			score.Correct++
		}
	}
	if score.Total > 0 {
		score.Percentage = int(math.Round(100 * float64(score.Correct) / float64(score.Total)))
	}
	score.Feedback = FeedbackFor(score.Percentage)
	return score
}

// FeedbackFor maps a percentage to the band shown next to the score.
func FeedbackFor(percentage int) string {
	switch {
	case percentage >= 80:
		return "Excellent! You have a strong understanding of this material."
	case percentage >= 50:
		return "Good effort! Review the explanations to strengthen your understanding."
	default:
		return "Keep practicing! Review the material and try again."
	}
}

// Document is a file offered for upload.
type Document struct {
	Name         string
	DeclaredType string
	Data         []byte
}

func (d Document) Size() int64 {
	return int64(len(d.Data))
}
