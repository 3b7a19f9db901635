package service

import (
	"context"
	"sync"

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

// --- stubAuth ---
type stubAuth struct {
	mu       sync.Mutex
	token    string
	identity domain.Identity
}

func (s *stubAuth) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

func (s *stubAuth) BearerToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *stubAuth) Identity() domain.Identity {
	return s.identity
}

func (s *stubAuth) signOut() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// --- MockSectionMemory ---
type MockSectionMemory struct {
	mock.Mock
}

func (m *MockSectionMemory) RememberSection(ctx context.Context, sectionID string) error {
	args := m.Called(ctx, sectionID)
	return args.Error(0)
}

func (m *MockSectionMemory) LastSection(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
