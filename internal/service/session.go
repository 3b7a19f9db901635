package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"study-quiz/internal/domain"
	"study-quiz/internal/logger"
	"study-quiz/internal/util"
	"study-quiz/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SessionController drives one quiz session. Methods are safe for concurrent use.
type SessionController interface {
	View() domain.SessionView
	SubmitDocument(ctx context.Context, doc domain.Document) error
	LoadSection(ctx context.Context, sectionID string) error
	ResumeLast(ctx context.Context) error
	SelectAnswer(index int, opt domain.Option) (domain.AnswerFeedback, error)
	Advance() error
	Retreat() error
	RequestExplanations(ctx context.Context) error
	RequestTopics(ctx context.Context) error
	Reset()
	OnUnauthenticated(hook func())
}

type quizSession struct {
	sectionID    string
	questions    []domain.Question
	currentIndex int
	answers      map[int]domain.Option
	status       domain.SessionStatus
	// submitted is set once the server acknowledged the answers.
	submitted    bool
	explanations []domain.ExplanationItem
	topics       []domain.TopicItem
}

func (s *quizSession) advanceStatus(next domain.SessionStatus) {
	if s.status.Precedes(next) {
		s.status = next
	}
}

type sessionController struct {
	api       domain.StudyAPI
	auth      domain.AuthProvider
	memory    domain.SectionMemory
	validator *validation.Validator
	group     singleflight.Group

	mu         sync.Mutex
	state      domain.State
	generation string
	busy       bool
	session    *quizSession
	lastErr    *domain.DomainError
	onUnauth   func()
}

// NewSessionController creates an idle controller. memory may be nil.
func NewSessionController(api domain.StudyAPI, auth domain.AuthProvider, memory domain.SectionMemory, validator *validation.Validator) SessionController {
	return &sessionController{
		api:        api,
		auth:       auth,
		memory:     memory,
		validator:  validator,
		state:      domain.StateIdle,
		generation: util.NewULID(),
	}
}

func (c *sessionController) OnUnauthenticated(hook func()) {
	c.mu.Lock()
	c.onUnauth = hook
	c.mu.Unlock()
}

// guard checks the caller may start op. Callers hold mu.
func (c *sessionController) guard(op string, allowed domain.State) error {
	if c.busy {
		return domain.NewError(domain.CodeInvalidTransition, "Please wait for the current request to finish.", nil)
	}
	if c.state != allowed {
		return domain.NewInvalidTransitionError(op, c.state)
	}
	return nil
}

func toDomainError(err error) *domain.DomainError {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return domain.NewInternalError("Something went wrong. Please try again.", err)
}

// fail records err for a request issued under gen and returns the controller
// to restore. Authentication failures discard the session instead.
func (c *sessionController) fail(gen string, restore domain.State, err error) error {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return domain.ErrStaleResponse
	}

	domainErr := toDomainError(err)
	c.busy = false
	c.lastErr = domainErr

	var hook func()
	if domainErr.Code == domain.CodeUnauthenticated {
		c.session = nil
		c.state = domain.StateIdle
		c.generation = util.NewULID()
		hook = c.onUnauth
	} else {
		c.state = restore
	}
	c.mu.Unlock()

	logger.Get().Warn("SessionController: transition failed",
		zap.String("code", string(domainErr.Code)),
		zap.String("message", domainErr.Message),
		zap.Error(domainErr.Cause),
	)
	if hook != nil {
		hook()
	}
	return domainErr
}

// commit applies fn if the session is still the one the request was issued for.
func (c *sessionController) commit(gen string, fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return domain.ErrStaleResponse
	}
	fn()
	return nil
}

// begin starts a network-backed transition from state allowed. It returns the
// generation the request belongs to and the bearer token to send. capture, if
// set, reads what the request needs from the session while the lock is held.
func (c *sessionController) begin(op string, allowed, during domain.State, newSession bool, capture func(*quizSession)) (string, string, error) {
	c.mu.Lock()
	if err := c.guard(op, allowed); err != nil {
		c.mu.Unlock()
		return "", "", err
	}
	if newSession {
		c.generation = util.NewULID()
	}
	gen := c.generation

	token := c.auth.BearerToken()
	if !c.auth.IsAuthenticated() || token == "" {
		c.mu.Unlock()
		return gen, "", c.fail(gen, allowed, domain.NewUnauthenticatedError(""))
	}

	if capture != nil && c.session != nil {
		capture(c.session)
	}
	c.busy = true
	c.state = during
	c.lastErr = nil
	c.mu.Unlock()
	return gen, token, nil
}

func (c *sessionController) SubmitDocument(ctx context.Context, doc domain.Document) error {
	c.mu.Lock()
	if err := c.guard("SubmitDocument", domain.StateIdle); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.validator.ValidateDocument(doc); err != nil {
		c.lastErr = toDomainError(err)
		c.mu.Unlock()
		logger.Get().Info("SessionController: document rejected",
			zap.String("name", doc.Name),
			zap.Int64("size", doc.Size()),
			zap.Error(err),
		)
		return err
	}
	c.mu.Unlock()

	gen, token, err := c.begin("SubmitDocument", domain.StateIdle, domain.StateUploading, true, nil)
	if err != nil {
		return err
	}

	sectionID, err := c.api.UploadDocument(ctx, token, doc)
	if err != nil {
		return c.fail(gen, domain.StateIdle, err)
	}
	if err := c.commit(gen, func() { c.state = domain.StateQuizLoaded }); err != nil {
		logger.Get().Debug("SessionController: discarding stale upload response", zap.String("section_id", sectionID))
		return err
	}
	logger.Get().Info("SessionController: document uploaded",
		zap.String("section_id", sectionID),
		zap.Int64("size", doc.Size()),
	)

	if c.memory != nil {
		if err := c.memory.RememberSection(ctx, sectionID); err != nil {
			logger.Get().Warn("SessionController: failed to remember section", zap.Error(err))
		}
	}

	return c.loadQuiz(ctx, gen, token, sectionID)
}

func (c *sessionController) LoadSection(ctx context.Context, sectionID string) error {
	if err := c.validator.ValidateSectionID(sectionID); err != nil {
		return err
	}
	gen, token, err := c.begin("LoadSection", domain.StateIdle, domain.StateQuizLoaded, true, nil)
	if err != nil {
		return err
	}
	return c.loadQuiz(ctx, gen, token, sectionID)
}

func (c *sessionController) ResumeLast(ctx context.Context) error {
	if c.memory == nil {
		return domain.NewNotFoundError("No previous upload to resume.")
	}
	sectionID, err := c.memory.LastSection(ctx)
	if err != nil {
		return err
	}
	return c.LoadSection(ctx, sectionID)
}

// loadQuiz fetches the quiz for sectionID and opens a session on it. Any
// failure leaves the controller Idle with no partial session.
func (c *sessionController) loadQuiz(ctx context.Context, gen, token, sectionID string) error {
	quiz, err := c.api.FetchQuiz(ctx, token, sectionID)
	if err != nil {
		return c.fail(gen, domain.StateIdle, err)
	}
	if err := quiz.Validate(); err != nil {
		return c.fail(gen, domain.StateIdle, err)
	}

	session := &quizSession{
		sectionID: sectionID,
		questions: quiz.Questions,
		answers:   make(map[int]domain.Option, len(quiz.Questions)),
		status:    domain.StatusInProgress,
	}

	if quiz.Taken {
		items, err := c.api.FetchExplanations(ctx, token, sectionID)
		if err != nil {
			return c.fail(gen, domain.StateIdle, err)
		}
		for _, item := range items {
			idx := item.QuestionNumber - 1
			if idx < 0 || idx >= len(session.questions) {
				continue
			}
			if session.questions[idx].HasOption(item.YourAnswer) {
				session.answers[idx] = item.YourAnswer
			}
		}
		session.submitted = true
		session.explanations = items
		session.advanceStatus(domain.StatusExplanationsShown)
	}

	err = c.commit(gen, func() {
		c.session = session
		c.busy = false
		c.lastErr = nil
		if quiz.Taken {
			c.state = domain.StateExplanationsShown
		} else {
			c.state = domain.StateAnswering
		}
	})
	if err != nil {
		logger.Get().Debug("SessionController: discarding stale quiz response", zap.String("section_id", sectionID))
		return err
	}

	logger.Get().Info("SessionController: quiz loaded",
		zap.String("section_id", sectionID),
		zap.Int("questions", len(session.questions)),
		zap.Bool("taken", quiz.Taken),
	)
	return nil
}

func (c *sessionController) SelectAnswer(index int, opt domain.Option) (domain.AnswerFeedback, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("SelectAnswer", domain.StateAnswering); err != nil {
		return domain.AnswerFeedback{}, err
	}
	s := c.session
	if index < 0 || index >= len(s.questions) {
		return domain.AnswerFeedback{}, domain.NewInvalidInputError(fmt.Sprintf("Question %d does not exist.", index+1))
	}
	question := s.questions[index]

	if existing, ok := s.answers[index]; ok {
		return domain.AnswerFeedback{
			Index:    index,
			Selected: existing,
			Correct:  existing == question.Correct,
			Answer:   question.Correct,
		}, nil
	}
	if !question.HasOption(opt) {
		return domain.AnswerFeedback{}, domain.NewInvalidInputError(fmt.Sprintf("Option %s is not available for this question.", opt))
	}

	s.answers[index] = opt
	c.lastErr = nil
	return domain.AnswerFeedback{
		Index:    index,
		Selected: opt,
		Correct:  opt == question.Correct,
		Answer:   question.Correct,
		Recorded: true,
	}, nil
}

func (c *sessionController) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("Advance", domain.StateAnswering); err != nil {
		return err
	}
	s := c.session
	if _, ok := s.answers[s.currentIndex]; !ok {
		return domain.NewError(domain.CodeInvalidTransition, "Select an answer before moving on.", nil)
	}

	if s.currentIndex == len(s.questions)-1 {
		s.advanceStatus(domain.StatusCompleted)
		c.state = domain.StateFinalScore
		score := domain.ComputeScore(s.questions, s.answers)
		logger.Get().Info("SessionController: quiz completed",
			zap.String("section_id", s.sectionID),
			zap.Int("correct", score.Correct),
			zap.Int("total", score.Total),
		)
		return nil
	}
	s.currentIndex++
	return nil
}

func (c *sessionController) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard("Retreat", domain.StateAnswering); err != nil {
		return err
	}
	if c.session.currentIndex > 0 {
		c.session.currentIndex--
	}
	return nil
}

// RequestExplanations submits the answers once and then fetches explanations.
// Concurrent calls for the same session share one request.
func (c *sessionController) RequestExplanations(ctx context.Context) error {
	c.mu.Lock()
	key := "explanations:" + c.generation
	c.mu.Unlock()

	_, err, shared := c.group.Do(key, func() (interface{}, error) {
		return nil, c.requestExplanations(ctx)
	})
	if shared {
		logger.Get().Debug("SessionController: explanation request shared between concurrent callers")
	}
	return err
}

func (c *sessionController) requestExplanations(ctx context.Context) error {
	var (
		sectionID string
		submitted bool
		answers   []domain.SubmittedAnswer
	)
	gen, token, err := c.begin("RequestExplanations", domain.StateFinalScore, domain.StateFinalScore, false, func(s *quizSession) {
		sectionID = s.sectionID
		submitted = s.submitted
		answers = make([]domain.SubmittedAnswer, 0, len(s.questions))
		for i := range s.questions {
			if opt, ok := s.answers[i]; ok {
				answers = append(answers, domain.SubmittedAnswer{QuestionNo: i + 1, Answer: opt})
			}
		}
	})
	if err != nil {
		return err
	}

	if !submitted {
		if err := c.api.SubmitAnswers(ctx, token, sectionID, answers); err != nil {
			return c.fail(gen, domain.StateFinalScore, err)
		}
		if err := c.commit(gen, func() { c.session.submitted = true }); err != nil {
			return err
		}
		logger.Get().Info("SessionController: answers submitted",
			zap.String("section_id", sectionID),
			zap.Int("answers", len(answers)),
		)
	}

	items, err := c.api.FetchExplanations(ctx, token, sectionID)
	if err != nil {
		return c.fail(gen, domain.StateFinalScore, err)
	}
	return c.commit(gen, func() {
		c.session.explanations = items
		c.session.advanceStatus(domain.StatusExplanationsShown)
		c.state = domain.StateExplanationsShown
		c.busy = false
		c.lastErr = nil
	})
}

// RequestTopics makes sure a topic job exists and fetches the topics.
func (c *sessionController) RequestTopics(ctx context.Context) error {
	c.mu.Lock()
	key := "topics:" + c.generation
	c.mu.Unlock()

	_, err, _ := c.group.Do(key, func() (interface{}, error) {
		return nil, c.requestTopics(ctx)
	})
	return err
}

func (c *sessionController) requestTopics(ctx context.Context) error {
	var sectionID string
	gen, token, err := c.begin("RequestTopics", domain.StateExplanationsShown, domain.StateExplanationsShown, false, func(s *quizSession) {
		sectionID = s.sectionID
	})
	if err != nil {
		return err
	}

	if err := c.api.CreateTopics(ctx, token, sectionID); err != nil {
		if !domain.IsAlreadyExists(err) {
			return c.fail(gen, domain.StateExplanationsShown, err)
		}
		logger.Get().Debug("SessionController: topics already exist", zap.String("section_id", sectionID))
	}

	topics, err := c.api.FetchTopics(ctx, token, sectionID)
	if err != nil {
		return c.fail(gen, domain.StateExplanationsShown, err)
	}
	return c.commit(gen, func() {
		c.session.topics = topics
		c.session.advanceStatus(domain.StatusTopicsShown)
		c.state = domain.StateTopicsShown
		c.busy = false
		c.lastErr = nil
	})
}

// Reset discards the session. Responses to requests already in flight are dropped.
func (c *sessionController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation = util.NewULID()
	c.session = nil
	c.state = domain.StateIdle
	c.busy = false
	c.lastErr = nil
}

func (c *sessionController) View() domain.SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := domain.SessionView{
		State:     c.state,
		Busy:      c.busy,
		LastError: c.lastErr,
	}
	s := c.session
	if s == nil {
		return view
	}

	view.SectionID = s.sectionID
	view.Status = s.status
	view.CurrentIndex = s.currentIndex
	view.Total = len(s.questions)
	view.Answers = make(map[int]domain.Option, len(s.answers))
	for k, v := range s.answers {
		view.Answers[k] = v
	}

	if c.state == domain.StateAnswering {
		q := s.questions[s.currentIndex]
		current := &domain.QuestionView{
			Index:   s.currentIndex,
			Number:  s.currentIndex + 1,
			Prompt:  q.Prompt,
			Options: make(map[domain.Option]string, len(q.Options)),
		}
		for k, v := range q.Options {
			current.Options[k] = v
		}
		if selected, ok := s.answers[s.currentIndex]; ok {
			current.Selected = selected
			current.Correct = q.Correct
		}
		view.Current = current
	}

	if s.status != domain.StatusInProgress {
		score := domain.ComputeScore(s.questions, s.answers)
		view.Score = &score
		view.Review = make([]domain.ReviewItem, 0, len(s.questions))
		for i, q := range s.questions {
			selected := s.answers[i]
			view.Review = append(view.Review, domain.ReviewItem{
				Number:   i + 1,
				Prompt:   q.Prompt,
				Selected: selected,
				Correct:  q.Correct,
				IsRight:  selected == q.Correct,
			})
		}
	}

	view.Explanations = append([]domain.ExplanationItem(nil), s.explanations...)
	view.Topics = append([]domain.TopicItem(nil), s.topics...)
	return view
}
