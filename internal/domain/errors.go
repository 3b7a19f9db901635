package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error surfaced to presentation
type ErrorCode string

const (
	// Session error taxonomy
	CodeUploadRejected     ErrorCode = "upload_rejected"
	CodeNetworkUnreachable ErrorCode = "network_unreachable"
	CodeUnauthenticated    ErrorCode = "unauthenticated"
	CodeServerError        ErrorCode = "server_error"
	CodeMalformedResponse  ErrorCode = "malformed_response"

	// Guard violations by the caller. These never change state.
	CodeInvalidTransition ErrorCode = "invalid_transition"
	CodeInvalidInput      ErrorCode = "invalid_input"

	// Field-level validation
	CodeValidation    ErrorCode = "validation_failed"
	CodeMissingField  ErrorCode = "missing_field"
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeOutOfRange    ErrorCode = "out_of_range"

	CodeNotFound ErrorCode = "not_found"
	CodeInternal ErrorCode = "internal_error"
)

var (
	// ErrStaleResponse is returned when a response arrives for a session that no longer exists.
	ErrStaleResponse = errors.New("response discarded: session changed while request was in flight")

	// ErrAlreadyExists marks a create request the server had already fulfilled.
	ErrAlreadyExists = errors.New("already exists")
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Status is the upstream HTTP status for server errors, zero otherwise.
	Status int   `json:"-"`
	Cause  error `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewUploadRejectedError(message string) *DomainError {
	return NewError(CodeUploadRejected, message, nil)
}

func NewNetworkError(cause error) *DomainError {
	return NewError(CodeNetworkUnreachable, "Could not reach the study service. Check your connection and try again.", cause)
}

func NewUnauthenticatedError(message string) *DomainError {
	if message == "" {
		message = "Please sign in to continue."
	}
	return NewError(CodeUnauthenticated, message, nil)
}

// NewServerError keeps the server's message verbatim when it sent one.
func NewServerError(status int, message string) *DomainError {
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("The study service failed to process the request (status %d).", status)
	}
	return &DomainError{Code: CodeServerError, Message: message, Status: status}
}

func NewMalformedResponseError(message string, cause error) *DomainError {
	return NewError(CodeMalformedResponse, message, cause)
}

func NewInvalidTransitionError(operation string, state State) *DomainError {
	return NewError(CodeInvalidTransition, fmt.Sprintf("%s is not allowed while the session is %s", operation, state), nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

// CodeOf returns the taxonomy code carried by err, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	var validationErrs ValidationErrors
	if errors.As(err, &validationErrs) {
		return CodeValidation
	}
	return CodeInternal
}

// IsAlreadyExists reports whether err means the requested resource was already there.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAlreadyExists) {
		return true
	}
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != CodeServerError {
		return false
	}
	return strings.Contains(strings.ToLower(domainErr.Message), "already exists")
}

// ValidationError describes one invalid field of a request.
type ValidationError struct {
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects field errors for a single request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeMissingField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidFormatError(field string, value interface{}, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeInvalidFormat,
		Message: message,
		Value:   value,
	}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("%s must be between %d and %d", field, min, max),
		Value:   value,
	}
}
