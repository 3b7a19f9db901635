package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleQuestion(correct Option) Question {
	return Question{
		Prompt: "What is 2+2?",
		Options: map[Option]string{
			OptionA: "3",
			OptionB: "4",
			OptionC: "5",
		},
		Correct: correct,
	}
}

func TestQuiz_Validate(t *testing.T) {
	tooMany := make([]Question, MaxQuestions+1)
	for i := range tooMany {
		tooMany[i] = sampleQuestion(OptionB)
	}

	tests := []struct {
		name    string
		quiz    *Quiz
		wantErr bool
	}{
		{"valid quiz", &Quiz{Questions: []Question{sampleQuestion(OptionB)}}, false},
		{"nil quiz", nil, true},
		{"no questions", &Quiz{}, true},
		{"too many questions", &Quiz{Questions: tooMany}, true},
		{"correct answer not among options", &Quiz{Questions: []Question{sampleQuestion(OptionD)}}, true},
		{"empty prompt", &Quiz{Questions: []Question{{Options: map[Option]string{OptionA: "x"}, Correct: OptionA}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quiz.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, CodeMalformedResponse, CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseOption(t *testing.T) {
	opt, ok := ParseOption(" b ")
	assert.True(t, ok)
	assert.Equal(t, OptionB, opt)

	_, ok = ParseOption("E")
	assert.False(t, ok)

	_, ok = ParseOption("")
	assert.False(t, ok)
}

func TestComputeScore(t *testing.T) {
	questions := make([]Question, 10)
	for i := range questions {
		questions[i] = sampleQuestion(OptionB)
	}

	t.Run("seven of ten is seventy percent", func(t *testing.T) {
		answers := map[int]Option{}
		for i := 0; i < 10; i++ {
			if i < 7 {
				answers[i] = OptionB
			} else {
				answers[i] = OptionA
			}
		}
		score := ComputeScore(questions, answers)
		assert.Equal(t, 7, score.Correct)
		assert.Equal(t, 10, score.Total)
		assert.Equal(t, 70, score.Percentage)
		assert.Equal(t, FeedbackFor(70), score.Feedback)
	})

	t.Run("rounds to nearest", func(t *testing.T) {
		three := questions[:3]
		score := ComputeScore(three, map[int]Option{0: OptionB, 1: OptionB})
		assert.Equal(t, 67, score.Percentage)
	})

	t.Run("no questions leaves percentage at zero", func(t *testing.T) {
		score := ComputeScore(nil, nil)
		assert.Equal(t, 0, score.Total)
		assert.Equal(t, 0, score.Percentage)
	})
}

func TestFeedbackFor(t *testing.T) {
	assert.Contains(t, FeedbackFor(80), "Excellent")
	assert.Contains(t, FeedbackFor(79), "Good")
	assert.Contains(t, FeedbackFor(50), "Good")
	assert.Contains(t, FeedbackFor(49), "Keep practicing")
}

func TestSessionStatus_Precedes(t *testing.T) {
	assert.True(t, StatusInProgress.Precedes(StatusCompleted))
	assert.True(t, StatusCompleted.Precedes(StatusTopicsShown))
	assert.False(t, StatusExplanationsShown.Precedes(StatusCompleted))
	assert.False(t, StatusCompleted.Precedes(StatusCompleted))
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("upload: %w", NewUploadRejectedError("too big"))
	assert.Equal(t, CodeUploadRejected, CodeOf(wrapped))
	assert.Equal(t, CodeValidation, CodeOf(ValidationErrors{NewMissingFieldError("email")}))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestIsAlreadyExists(t *testing.T) {
	conflict := NewServerError(409, "")
	conflict.Cause = ErrAlreadyExists
	assert.True(t, IsAlreadyExists(conflict))
	assert.False(t, IsAlreadyExists(NewServerError(409, "")))
	assert.True(t, IsAlreadyExists(NewServerError(400, "Topics already exists for this section")))
	assert.True(t, IsAlreadyExists(fmt.Errorf("topics: %w", ErrAlreadyExists)))
	assert.False(t, IsAlreadyExists(NewServerError(500, "database down")))
	assert.False(t, IsAlreadyExists(NewNetworkError(errors.New("dial tcp"))))
	assert.False(t, IsAlreadyExists(nil))
}

func TestServerError_FallbackMessage(t *testing.T) {
	err := NewServerError(502, "  ")
	assert.Contains(t, err.Message, "502")
	assert.Equal(t, 502, err.Status)

	err = NewServerError(400, "Invalid section id")
	assert.Equal(t, "Invalid section id", err.Error())
}
