package handler_test

import (
	"context"

	"study-quiz/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockStudyAPI ---
type MockStudyAPI struct {
	mock.Mock
}

func (m *MockStudyAPI) UploadDocument(ctx context.Context, token string, doc domain.Document) (string, error) {
	args := m.Called(ctx, token, doc)
	return args.String(0), args.Error(1)
}

func (m *MockStudyAPI) FetchQuiz(ctx context.Context, token, sectionID string) (*domain.Quiz, error) {
	args := m.Called(ctx, token, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockStudyAPI) SubmitAnswers(ctx context.Context, token, sectionID string, answers []domain.SubmittedAnswer) error {
	args := m.Called(ctx, token, sectionID, answers)
	return args.Error(0)
}

func (m *MockStudyAPI) FetchExplanations(ctx context.Context, token, sectionID string) ([]domain.ExplanationItem, error) {
	args := m.Called(ctx, token, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExplanationItem), args.Error(1)
}

func (m *MockStudyAPI) CreateTopics(ctx context.Context, token, sectionID string) error {
	args := m.Called(ctx, token, sectionID)
	return args.Error(0)
}

func (m *MockStudyAPI) FetchTopics(ctx context.Context, token, sectionID string) ([]domain.TopicItem, error) {
	args := m.Called(ctx, token, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TopicItem), args.Error(1)
}

// --- MockAccountAPI ---
type MockAccountAPI struct {
	mock.Mock
}

func (m *MockAccountAPI) Register(ctx context.Context, form domain.SignupForm) (string, error) {
	args := m.Called(ctx, form)
	return args.String(0), args.Error(1)
}

func (m *MockAccountAPI) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Error(1)
}
