package handler

import (
	"study-quiz/internal/middleware"
	"study-quiz/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the auth and session routes on router.
func RegisterRoutes(router fiber.Router, authHandler *AuthHandler, sessionHandler *SessionHandler, registry *service.SessionRegistry) {
	protected := middleware.Protected(registry)

	authGroup := router.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", protected, authHandler.Logout)

	sessionGroup := router.Group("/session", protected)
	sessionGroup.Get("", sessionHandler.GetSession)
	sessionGroup.Post("/upload", sessionHandler.Upload)
	sessionGroup.Post("/sections/:id", sessionHandler.OpenSection)
	sessionGroup.Post("/resume", sessionHandler.Resume)
	sessionGroup.Post("/answers", sessionHandler.SelectAnswer)
	sessionGroup.Post("/advance", sessionHandler.Advance)
	sessionGroup.Post("/retreat", sessionHandler.Retreat)
	sessionGroup.Post("/explanations", sessionHandler.Explanations)
	sessionGroup.Post("/topics", sessionHandler.Topics)
	sessionGroup.Post("/reset", sessionHandler.Reset)
}
