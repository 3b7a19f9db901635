package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-quiz/internal/adapter"
	"study-quiz/internal/cache"
	"study-quiz/internal/config"
	"study-quiz/internal/domain"
	"study-quiz/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func signedToken(t *testing.T, username, email string, expiresIn time.Duration) string {
	t.Helper()
	claims := Claims{
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func newTestProvider(accounts domain.AccountAPI, store domain.Cache) *Provider {
	return NewProvider(accounts, store, validation.NewValidator(config.UploadConfig{}), ProviderOptions{
		Profile:       "test",
		CredentialTTL: time.Hour,
	})
}

func TestProvider_SignedOutByDefault(t *testing.T) {
	p := newTestProvider(nil, nil)

	assert.False(t, p.IsAuthenticated())
	assert.Empty(t, p.BearerToken())
	assert.Equal(t, domain.Identity{}, p.Identity())

	_, err := p.Token()
	assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
}

func TestProvider_Login(t *testing.T) {
	ctx := context.Background()
	store := adapter.NewMemoryCacheAdapter()
	accounts := new(MockAccountAPI)
	p := newTestProvider(accounts, store)

	token := signedToken(t, "alice", "alice@example.com", time.Hour)
	creds := domain.Credentials{Email: "alice@example.com", Password: "abc123"}
	accounts.On("Login", ctx, creds).Return(token, nil).Once()

	require.NoError(t, p.Login(ctx, creds))

	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, token, p.BearerToken())
	assert.Equal(t, domain.Identity{Username: "alice", Email: "alice@example.com"}, p.Identity())

	stored, err := store.HGet(ctx, cache.CredentialKey("test"), cache.FieldToken)
	require.NoError(t, err)
	assert.Equal(t, token, stored)
	accounts.AssertExpectations(t)
}

func TestProvider_Login_ValidationFailsWithoutNetwork(t *testing.T) {
	accounts := new(MockAccountAPI)
	p := newTestProvider(accounts, nil)

	err := p.Login(context.Background(), domain.Credentials{Email: "not-an-email"})

	var validationErrs domain.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
	assert.Len(t, validationErrs, 2)
	accounts.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestProvider_Login_ServerRejects(t *testing.T) {
	ctx := context.Background()
	accounts := new(MockAccountAPI)
	p := newTestProvider(accounts, nil)

	creds := domain.Credentials{Email: "alice@example.com", Password: "wrong1"}
	accounts.On("Login", ctx, creds).Return("", domain.NewUnauthenticatedError("Invalid credentials")).Once()

	err := p.Login(ctx, creds)
	assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
	assert.False(t, p.IsAuthenticated())
}

func TestProvider_ExpiredTokenIsNotAuthenticated(t *testing.T) {
	p := newTestProvider(nil, nil)
	p.Adopt(signedToken(t, "alice", "alice@example.com", -time.Minute))

	assert.False(t, p.IsAuthenticated())
	assert.Empty(t, p.BearerToken())
	assert.Equal(t, "alice", p.Identity().Username)
}

func TestProvider_OpaqueTokenIsAccepted(t *testing.T) {
	p := newTestProvider(nil, nil)
	p.Adopt("opaque-token")

	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, "opaque-token", p.BearerToken())
	assert.Equal(t, domain.Identity{}, p.Identity())
}

func TestProvider_RestoreAndLogout(t *testing.T) {
	ctx := context.Background()
	store := adapter.NewMemoryCacheAdapter()
	token := signedToken(t, "bob", "bob@example.com", time.Hour)
	require.NoError(t, store.HSet(ctx, cache.CredentialKey("test"), cache.FieldToken, token))

	p := newTestProvider(nil, store)
	require.NoError(t, p.Restore(ctx))
	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, "bob", p.Identity().Username)

	require.NoError(t, p.RememberSection(ctx, "sec-9"))
	sectionID, err := p.LastSection(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sec-9", sectionID)

	require.NoError(t, p.Logout(ctx))
	assert.False(t, p.IsAuthenticated())

	_, err = p.LastSection(ctx)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestProvider_RestoreDropsExpiredCredential(t *testing.T) {
	ctx := context.Background()
	store := adapter.NewMemoryCacheAdapter()
	key := cache.CredentialKey("test")
	require.NoError(t, store.HSet(ctx, key, cache.FieldToken, signedToken(t, "bob", "bob@example.com", -time.Hour)))

	p := newTestProvider(nil, store)
	require.NoError(t, p.Restore(ctx))

	assert.False(t, p.IsAuthenticated())
	fields, err := store.HGetAll(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestProvider_Register(t *testing.T) {
	ctx := context.Background()
	accounts := new(MockAccountAPI)
	p := newTestProvider(accounts, nil)

	form := domain.SignupForm{Username: "carol", Email: "carol@example.com", Password: "pass99", Age: 19, Academic: domain.AcademicUndergraduated}
	accounts.On("Register", ctx, form).Return("User registered successfully", nil).Once()

	msg, err := p.Register(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", msg)
	assert.False(t, p.IsAuthenticated())

	_, err = p.Register(ctx, domain.SignupForm{Username: "carol", Email: "carol@example.com", Password: "pass99", Age: 9, Academic: domain.AcademicUndergraduated})
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	accounts.AssertNumberOfCalls(t, "Register", 1)
}

func TestTokenKey(t *testing.T) {
	a := TokenKey("header.payload.signature-a")
	b := TokenKey("header.payload.signature-b")

	assert.Len(t, a, 64)
	assert.Equal(t, a, TokenKey("header.payload.signature-a"))
	assert.NotEqual(t, a, b)
}
