package dto

import "study-quiz/internal/domain"

// RegisterRequest is the signup form
// @Description Account registration
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Academic string `json:"academic" example:"High School"`
}

func (r RegisterRequest) ToDomain() domain.SignupForm {
	return domain.SignupForm{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Age:      r.Age,
		Academic: r.Academic,
	}
}

// LoginRequest exchanges credentials for a token
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token to send on session routes
type LoginResponse struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

// MessageResponse is a plain confirmation
type MessageResponse struct {
	Message string `json:"message"`
}
