package validation

import (
	"fmt"
	"regexp"
	"strings"

	"study-quiz/internal/config"
	"study-quiz/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	letterPattern   = regexp.MustCompile(`[A-Za-z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

const (
	MinPasswordLength = 6
	MinAge            = 13
	MaxAge            = 120
)

// Validator provides request validation functionality
type Validator struct {
	maxUploadBytes int64
	allowedTypes   []string
}

// NewValidator creates a validator for the given upload limits.
func NewValidator(uploadCfg config.UploadConfig) *Validator {
	maxBytes := uploadCfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxUploadBytes
	}
	allowed := uploadCfg.AllowedTypes
	if len(allowed) == 0 {
		allowed = []string{"application/pdf"}
	}
	return &Validator{maxUploadBytes: maxBytes, allowedTypes: allowed}
}

// MaxUploadBytes is the configured document ceiling.
func (v *Validator) MaxUploadBytes() int64 {
	return v.maxUploadBytes
}

// OversizeError is the rejection for a document above the ceiling.
func (v *Validator) OversizeError() *domain.DomainError {
	return domain.NewUploadRejectedError(fmt.Sprintf("File size exceeds %s limit.", humanBytes(v.maxUploadBytes)))
}

// ValidateDocument checks size and type before anything is sent.
// Both the declared type and the sniffed content must be allowed.
func (v *Validator) ValidateDocument(doc domain.Document) error {
	if doc.Size() == 0 {
		return domain.NewUploadRejectedError("The selected file is empty.")
	}
	if doc.Size() > v.maxUploadBytes {
		return v.OversizeError()
	}

	if declared := strings.TrimSpace(doc.DeclaredType); declared != "" {
		base, _, _ := strings.Cut(declared, ";")
		if !v.isAllowed(strings.TrimSpace(base)) {
			return domain.NewUploadRejectedError("Please upload a PDF file.")
		}
	}

	detected := mimetype.Detect(doc.Data)
	allowed := false
	for _, t := range v.allowedTypes {
		if detected.Is(t) {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.NewUploadRejectedError(fmt.Sprintf("Please upload a PDF file (detected %s).", detected.String()))
	}
	return nil
}

func (v *Validator) isAllowed(mimeType string) bool {
	for _, t := range v.allowedTypes {
		if strings.EqualFold(t, mimeType) {
			return true
		}
	}
	return false
}

// ValidateSignup checks the registration form field by field.
func (v *Validator) ValidateSignup(form domain.SignupForm) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(form.Username) == "" {
		errors = append(errors, domain.NewMissingFieldError("username"))
	} else if !usernamePattern.MatchString(form.Username) {
		errors = append(errors, domain.NewInvalidFormatError("username", form.Username, "username may only contain letters"))
	}

	errors = append(errors, validateEmail(form.Email)...)

	if form.Password == "" {
		errors = append(errors, domain.NewMissingFieldError("password"))
	} else if len(form.Password) < MinPasswordLength ||
		!letterPattern.MatchString(form.Password) || !digitPattern.MatchString(form.Password) {
		errors = append(errors, domain.NewInvalidFormatError("password", nil,
			fmt.Sprintf("password must be at least %d characters and contain letters and numbers", MinPasswordLength)))
	}

	if form.Age < MinAge || form.Age > MaxAge {
		errors = append(errors, domain.NewOutOfRangeError("age", form.Age, MinAge, MaxAge))
	}

	switch form.Academic {
	case domain.AcademicHighSchool, domain.AcademicUndergraduated:
	case "":
		errors = append(errors, domain.NewMissingFieldError("academic"))
	default:
		errors = append(errors, domain.NewInvalidFormatError("academic", form.Academic,
			fmt.Sprintf("academic must be %q or %q", domain.AcademicHighSchool, domain.AcademicUndergraduated)))
	}

	return errors
}

// ValidateLogin checks the sign-in form.
func (v *Validator) ValidateLogin(creds domain.Credentials) domain.ValidationErrors {
	errors := validateEmail(creds.Email)
	if creds.Password == "" {
		errors = append(errors, domain.NewMissingFieldError("password"))
	}
	return errors
}

// ValidateOption parses an answer letter.
func (v *Validator) ValidateOption(raw string) (domain.Option, error) {
	opt, ok := domain.ParseOption(raw)
	if !ok {
		return "", domain.NewInvalidInputError(fmt.Sprintf("%q is not one of A, B, C or D", raw))
	}
	return opt, nil
}

// ValidateSectionID rejects blank ids and ids containing whitespace.
func (v *Validator) ValidateSectionID(sectionID string) error {
	if strings.TrimSpace(sectionID) == "" || strings.ContainsAny(sectionID, " \t\r\n") {
		return domain.NewInvalidInputError("A valid section id is required.")
	}
	return nil
}

func validateEmail(email string) domain.ValidationErrors {
	if strings.TrimSpace(email) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("email")}
	}
	if !emailPattern.MatchString(email) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("email", email, "email address is not valid")}
	}
	return nil
}

func humanBytes(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
