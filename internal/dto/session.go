package dto

import "study-quiz/internal/domain"

// SelectAnswerRequest records an answer for one question
// @Description Request body for selecting an answer
type SelectAnswerRequest struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

// SessionResponse wraps the session snapshot
// @Description Current quiz session
type SessionResponse struct {
	Session domain.SessionView `json:"session"`
}

// AnswerResponse is returned after selecting an answer
type AnswerResponse struct {
	Feedback domain.AnswerFeedback `json:"feedback"`
	Session  domain.SessionView    `json:"session"`
}

// UploadResponse is returned after a document was accepted and the quiz loaded
type UploadResponse struct {
	SectionID string             `json:"section_id"`
	Session   domain.SessionView `json:"session"`
}
