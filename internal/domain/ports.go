package domain

import "context"

// StudyAPI is the remote study service. Every call carries the caller's bearer token.
type StudyAPI interface {
	UploadDocument(ctx context.Context, token string, doc Document) (sectionID string, err error)
	FetchQuiz(ctx context.Context, token, sectionID string) (*Quiz, error)
	SubmitAnswers(ctx context.Context, token, sectionID string, answers []SubmittedAnswer) error
	FetchExplanations(ctx context.Context, token, sectionID string) ([]ExplanationItem, error)
	CreateTopics(ctx context.Context, token, sectionID string) error
	FetchTopics(ctx context.Context, token, sectionID string) ([]TopicItem, error)
}

// AccountAPI registers users and exchanges credentials for a token.
type AccountAPI interface {
	Register(ctx context.Context, form SignupForm) (message string, err error)
	Login(ctx context.Context, creds Credentials) (token string, err error)
}

// AuthProvider is read by the session controller and never mutated by it.
type AuthProvider interface {
	IsAuthenticated() bool
	BearerToken() string
	Identity() Identity
}

// SectionMemory remembers the last uploaded section so it can be reopened.
type SectionMemory interface {
	RememberSection(ctx context.Context, sectionID string) error
	LastSection(ctx context.Context) (string, error)
}
