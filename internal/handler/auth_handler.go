package handler

import (
	"study-quiz/internal/auth"
	"study-quiz/internal/domain"
	"study-quiz/internal/dto"
	"study-quiz/internal/logger"
	"study-quiz/internal/service"
	"study-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	accounts  domain.AccountAPI
	validator *validation.Validator
	registry  *service.SessionRegistry
}

func NewAuthHandler(accounts domain.AccountAPI, validator *validation.Validator, registry *service.SessionRegistry) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		validator: validator,
		registry:  registry,
	}
}

// provider returns a throwaway provider for the sign-in and signup exchanges.
// The signed-in credential lives on the registry's session afterwards.
func (h *AuthHandler) provider() *auth.Provider {
	return auth.NewProvider(h.accounts, nil, h.validator, auth.ProviderOptions{})
}

// Register creates an account on the study service.
// @Summary Register
// @Description Creates an account. The user signs in separately afterwards.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Signup form"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid signup form"
// @Failure 502 {object} middleware.ErrorResponse "Study service rejected the request"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}

	message, err := h.provider().Register(c.UserContext(), req.ToDomain())
	if err != nil {
		return err
	}
	if message == "" {
		message = "Account created. Please sign in."
	}

	logger.Get().Info("Account registered", zap.String("username", req.Username))
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: message})
}

// Login exchanges credentials for a bearer token.
// @Summary Login
// @Description Signs in against the study service and opens an empty quiz session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid credentials format"
// @Failure 401 {object} middleware.ErrorResponse "Credentials rejected"
// @Failure 503 {object} middleware.ErrorResponse "Study service unreachable"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}

	p := h.provider()
	if err := p.Login(c.UserContext(), domain.Credentials{Email: req.Email, Password: req.Password}); err != nil {
		return err
	}

	token := p.BearerToken()
	if token == "" {
		return domain.NewUnauthenticatedError("The study service issued an expired token.")
	}
	us := h.registry.Acquire(token)
	return c.JSON(dto.LoginResponse{Token: token, Identity: us.Provider.Identity()})
}

// Logout drops the caller's session and its remembered section.
// @Summary Logout
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	us, err := currentSession(c)
	if err != nil {
		return err
	}

	if err := us.Provider.Logout(c.UserContext()); err != nil {
		logger.Get().Warn("Failed to clear stored credential", zap.String("key", us.Key), zap.Error(err))
	}
	h.registry.Drop(us.Key)
	return c.JSON(dto.MessageResponse{Message: "Signed out."})
}
