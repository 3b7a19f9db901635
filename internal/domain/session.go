package domain

// State is the controller's position in the session lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StateUploading         State = "uploading"
	StateQuizLoaded        State = "quiz_loaded"
	StateAnswering         State = "answering"
	StateFinalScore        State = "final_score"
	StateExplanationsShown State = "explanations_shown"
	StateTopicsShown       State = "topics_shown"
)

// SessionStatus only moves forward.
type SessionStatus string

const (
	StatusInProgress        SessionStatus = "in_progress"
	StatusCompleted         SessionStatus = "completed"
	StatusExplanationsShown SessionStatus = "explanations_shown"
	StatusTopicsShown       SessionStatus = "topics_shown"
)

var statusRank = map[SessionStatus]int{
	StatusInProgress:        0,
	StatusCompleted:         1,
	StatusExplanationsShown: 2,
	StatusTopicsShown:       3,
}

// Precedes reports whether next is a forward move from s.
func (s SessionStatus) Precedes(next SessionStatus) bool {
	return statusRank[next] > statusRank[s]
}

// AnswerFeedback is returned by SelectAnswer. Recorded is false when the
// question already had an answer and nothing changed.
type AnswerFeedback struct {
	Index    int    `json:"index"`
	Selected Option `json:"selected"`
	Correct  bool   `json:"correct"`
	Answer   Option `json:"correct_answer"`
	Recorded bool   `json:"recorded"`
}

// QuestionView is a question as presented. The correct answer is only
// revealed once the question has been answered.
type QuestionView struct {
	Index    int               `json:"index"`
	Number   int               `json:"number"`
	Prompt   string            `json:"prompt"`
	Options  map[Option]string `json:"options"`
	Selected Option            `json:"selected,omitempty"`
	Correct  Option            `json:"correct_answer,omitempty"`
}

// ReviewItem compares the selected and correct answer for one question.
type ReviewItem struct {
	Number   int    `json:"number"`
	Prompt   string `json:"prompt"`
	Selected Option `json:"selected,omitempty"`
	Correct  Option `json:"correct_answer"`
	IsRight  bool   `json:"is_correct"`
}

// SessionView is a read-only snapshot for presentation layers.
type SessionView struct {
	State        State             `json:"state"`
	Busy         bool              `json:"busy"`
	SectionID    string            `json:"section_id,omitempty"`
	Status       SessionStatus     `json:"status,omitempty"`
	CurrentIndex int               `json:"current_index"`
	Total        int               `json:"total"`
	Current      *QuestionView     `json:"current,omitempty"`
	Answers      map[int]Option    `json:"answers,omitempty"`
	Score        *Score            `json:"score,omitempty"`
	Review       []ReviewItem      `json:"review,omitempty"`
	Explanations []ExplanationItem `json:"explanations,omitempty"`
	Topics       []TopicItem       `json:"topics,omitempty"`
	LastError    *DomainError      `json:"last_error,omitempty"`
}
