package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"study-quiz/internal/cache"
	"study-quiz/internal/domain"
	"study-quiz/internal/logger"
	"study-quiz/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Provider holds one user's credential. It satisfies domain.AuthProvider,
// domain.SectionMemory and oauth2.TokenSource.
type Provider struct {
	mu       sync.RWMutex
	token    *oauth2.Token
	identity domain.Identity

	accounts  domain.AccountAPI
	store     domain.Cache
	validator *validation.Validator
	profile   string
	ttl       time.Duration
}

var (
	_ domain.AuthProvider  = (*Provider)(nil)
	_ domain.SectionMemory = (*Provider)(nil)
	_ oauth2.TokenSource   = (*Provider)(nil)
)

// ProviderOptions configures where the credential is kept.
type ProviderOptions struct {
	// Profile names the credential hash in the store.
	Profile string
	// CredentialTTL bounds how long a stored token is kept. Zero keeps it until logout.
	CredentialTTL time.Duration
}

// NewProvider creates a signed-out provider. accounts and store may be nil
// when the caller only adopts tokens and has nowhere to persist them.
func NewProvider(accounts domain.AccountAPI, store domain.Cache, validator *validation.Validator, opts ProviderOptions) *Provider {
	return &Provider{
		accounts:  accounts,
		store:     store,
		validator: validator,
		profile:   opts.Profile,
		ttl:       opts.CredentialTTL,
	}
}

func (p *Provider) key() string {
	return cache.CredentialKey(p.profile)
}

// Token implements oauth2.TokenSource.
func (p *Provider) Token() (*oauth2.Token, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.token.Valid() {
		return nil, domain.NewUnauthenticatedError("")
	}
	tok := *p.token
	return &tok, nil
}

func (p *Provider) IsAuthenticated() bool {
	_, err := p.Token()
	return err == nil
}

// BearerToken returns the current token, or "" when signed out or expired.
func (p *Provider) BearerToken() string {
	tok, err := p.Token()
	if err != nil {
		return ""
	}
	return tok.AccessToken
}

func (p *Provider) Identity() domain.Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity
}

// Adopt installs a token obtained elsewhere without persisting it.
func (p *Provider) Adopt(token string) {
	identity, expiry := ParseToken(token)
	p.mu.Lock()
	p.token = &oauth2.Token{AccessToken: token, TokenType: "Bearer", Expiry: expiry}
	p.identity = identity
	p.mu.Unlock()
}

// Restore loads a previously stored credential. A missing or expired one leaves the provider signed out.
func (p *Provider) Restore(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	fields, err := p.store.HGetAll(ctx, p.key())
	if err != nil {
		return err
	}
	token := fields[cache.FieldToken]
	if token == "" {
		return nil
	}

	p.Adopt(token)
	if !p.IsAuthenticated() {
		logger.Get().Info("AuthProvider: stored credential expired", zap.String("profile", p.profile))
		p.clear()
		return p.store.Delete(ctx, p.key())
	}
	logger.Get().Debug("AuthProvider: credential restored",
		zap.String("profile", p.profile),
		zap.String("username", p.Identity().Username),
	)
	return nil
}

// Login exchanges credentials for a token and stores it.
func (p *Provider) Login(ctx context.Context, creds domain.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if p.validator != nil {
		if errs := p.validator.ValidateLogin(creds); len(errs) > 0 {
			return errs
		}
	}
	if p.accounts == nil {
		return domain.NewInternalError("sign-in is not available", nil)
	}

	token, err := p.accounts.Login(ctx, creds)
	if err != nil {
		return err
	}
	p.Adopt(token)

	if err := p.persist(ctx, cache.FieldToken, token); err != nil {
		logger.Get().Warn("AuthProvider: failed to store credential", zap.Error(err))
	}
	logger.Get().Info("AuthProvider: signed in", zap.String("username", p.Identity().Username))
	return nil
}

// Register creates an account. It does not sign the user in.
func (p *Provider) Register(ctx context.Context, form domain.SignupForm) (string, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if p.validator != nil {
		if errs := p.validator.ValidateSignup(form); len(errs) > 0 {
			return "", errs
		}
	}
	if p.accounts == nil {
		return "", domain.NewInternalError("registration is not available", nil)
	}
	return p.accounts.Register(ctx, form)
}

// Logout forgets the credential and the remembered section.
func (p *Provider) Logout(ctx context.Context) error {
	p.clear()
	if p.store == nil {
		return nil
	}
	return p.store.Delete(ctx, p.key())
}

func (p *Provider) clear() {
	p.mu.Lock()
	p.token = nil
	p.identity = domain.Identity{}
	p.mu.Unlock()
}

// RememberSection implements domain.SectionMemory.
func (p *Provider) RememberSection(ctx context.Context, sectionID string) error {
	return p.persist(ctx, cache.FieldLastSection, sectionID)
}

// LastSection returns the remembered section, or a not_found error.
func (p *Provider) LastSection(ctx context.Context) (string, error) {
	if p.store == nil {
		return "", domain.NewNotFoundError("No previous upload to resume.")
	}
	sectionID, err := p.store.HGet(ctx, p.key(), cache.FieldLastSection)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return "", domain.NewNotFoundError("No previous upload to resume.")
		}
		return "", err
	}
	return sectionID, nil
}

func (p *Provider) persist(ctx context.Context, field, value string) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.HSet(ctx, p.key(), field, value); err != nil {
		return err
	}
	if p.ttl > 0 {
		return p.store.Expire(ctx, p.key(), p.ttl)
	}
	return nil
}
