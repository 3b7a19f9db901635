package studyapi

import (
	"strings"

	"study-quiz/internal/domain"
)

type uploadResponse struct {
	SectionID string `json:"section_id"`
}

type quizEnvelope struct {
	Quiz *quizPayload `json:"quiz"`
}

type quizPayload struct {
	ID        string            `json:"ID"`
	Taken     bool              `json:"Taken"`
	Questions []questionPayload `json:"Questions"`
	CreatedBy string            `json:"CreatedBy"`
}

type questionPayload struct {
	Question string `json:"Question"`
	A        string `json:"A"`
	B        string `json:"B"`
	C        string `json:"C"`
	D        string `json:"D"`
	Answer   string `json:"Answer"`
}

type answersRequest struct {
	Answers []domain.SubmittedAnswer `json:"answers"`
}

type explanationPayload struct {
	QuestionNumber int    `json:"question_number"`
	CorrectAnswer  string `json:"correct_answer"`
	YourAnswer     string `json:"your_answer"`
	Explanation    string `json:"explanation"`
	Correctness    bool   `json:"correctness"`
}

type topicsEnvelope struct {
	Section *struct {
		Topics []topicPayload `json:"Topics"`
	} `json:"section"`
}

type topicPayload struct {
	Title       string `json:"Title"`
	Explanation string `json:"Explanation"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse covers both error shapes the service produces.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if msg := strings.TrimSpace(e.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Message)
}

func (p *quizPayload) toDomain(sectionID string) *domain.Quiz {
	quiz := &domain.Quiz{
		ID:        p.ID,
		SectionID: sectionID,
		Taken:     p.Taken,
		CreatedBy: p.CreatedBy,
		Questions: make([]domain.Question, 0, len(p.Questions)),
	}
	for _, q := range p.Questions {
		options := make(map[domain.Option]string, 4)
		for opt, text := range map[domain.Option]string{
			domain.OptionA: q.A,
			domain.OptionB: q.B,
			domain.OptionC: q.C,
			domain.OptionD: q.D,
		} {
			if strings.TrimSpace(text) != "" {
				options[opt] = text
			}
		}
		correct, _ := domain.ParseOption(q.Answer)
		quiz.Questions = append(quiz.Questions, domain.Question{
			Prompt:  q.Question,
			Options: options,
			Correct: correct,
		})
	}
	return quiz
}

func (p explanationPayload) toDomain() domain.ExplanationItem {
	return domain.ExplanationItem{
		QuestionNumber: p.QuestionNumber,
		YourAnswer:     normalizeLetter(p.YourAnswer),
		CorrectAnswer:  normalizeLetter(p.CorrectAnswer),
		Correct:        p.Correctness,
		Explanation:    p.Explanation,
	}
}

func normalizeLetter(s string) domain.Option {
	if opt, ok := domain.ParseOption(s); ok {
		return opt
	}
	return domain.Option(strings.TrimSpace(s))
}
