package service

import (
	"sync"
	"time"

	"study-quiz/internal/auth"
	"study-quiz/internal/domain"
	"study-quiz/internal/logger"
	"study-quiz/internal/validation"

	"go.uber.org/zap"
)

// UserSession pairs one bearer token with its controller.
type UserSession struct {
	Key        string
	Provider   *auth.Provider
	Controller SessionController
	lastUsed   time.Time
}

// SessionRegistry keeps one controller per bearer token for the HTTP facade.
type SessionRegistry struct {
	api       domain.StudyAPI
	store     domain.Cache
	validator *validation.Validator
	ttl       time.Duration

	mu       sync.Mutex
	sessions map[string]*UserSession
	now      func() time.Time
}

// NewSessionRegistry creates an empty registry. store may be nil, in which case
// remembered sections do not survive a restart.
func NewSessionRegistry(api domain.StudyAPI, store domain.Cache, validator *validation.Validator, credentialTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{
		api:       api,
		store:     store,
		validator: validator,
		ttl:       credentialTTL,
		sessions:  make(map[string]*UserSession),
		now:       time.Now,
	}
}

// Acquire returns the session bound to this exact token, creating it on first
// use. Claims are never verified here, so sessions are keyed by a digest of the
// token and a token never reaches a session created for another one.
func (r *SessionRegistry) Acquire(token string) *UserSession {
	identity, _ := auth.ParseToken(token)
	key := auth.TokenKey(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	us, ok := r.sessions[key]
	if !ok {
		provider := auth.NewProvider(nil, r.store, r.validator, auth.ProviderOptions{
			Profile:       key,
			CredentialTTL: r.ttl,
		})
		provider.Adopt(token)
		controller := NewSessionController(r.api, provider, provider, r.validator)
		us = &UserSession{Key: key, Provider: provider, Controller: controller}
		controller.OnUnauthenticated(func() {
			logger.Get().Info("SessionRegistry: credential rejected, dropping session", zap.String("username", identity.Username))
			r.Drop(key)
		})
		r.sessions[key] = us
		logger.Get().Debug("SessionRegistry: session created", zap.String("username", identity.Username))
	}
	us.lastUsed = r.now()
	return us
}

// Drop forgets the user's session and discards its state.
func (r *SessionRegistry) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if us, ok := r.sessions[key]; ok {
		us.Controller.Reset()
		delete(r.sessions, key)
	}
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than maxIdle and returns how many went.
func (r *SessionRegistry) Evict(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	evicted := 0
	for key, us := range r.sessions {
		if us.lastUsed.Before(cutoff) && !us.Controller.View().Busy {
			us.Controller.Reset()
			delete(r.sessions, key)
			evicted++
		}
	}
	if evicted > 0 {
		logger.Get().Info("SessionRegistry: evicted idle sessions", zap.Int("count", evicted))
	}
	return evicted
}
