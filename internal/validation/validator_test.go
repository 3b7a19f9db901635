package validation

import (
	"bytes"
	"testing"

	"study-quiz/internal/config"
	"study-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdfBytes(size int) []byte {
	header := []byte("%PDF-1.7\n")
	if size < len(header) {
		size = len(header)
	}
	data := make([]byte, size)
	copy(data, header)
	return data
}

func TestValidator_ValidateDocument(t *testing.T) {
	v := NewValidator(config.UploadConfig{})

	tests := []struct {
		name    string
		doc     domain.Document
		wantErr bool
	}{
		{"2MB pdf", domain.Document{Name: "a.pdf", DeclaredType: "application/pdf", Data: pdfBytes(2 << 20)}, false},
		{"exactly at ceiling", domain.Document{Name: "a.pdf", Data: pdfBytes(int(config.DefaultMaxUploadBytes))}, false},
		{"15MB pdf", domain.Document{Name: "a.pdf", DeclaredType: "application/pdf", Data: pdfBytes(15 << 20)}, true},
		{"empty", domain.Document{Name: "a.pdf", DeclaredType: "application/pdf"}, true},
		{"declared as text", domain.Document{Name: "a.txt", DeclaredType: "text/plain", Data: pdfBytes(100)}, true},
		{"declared pdf but content is text", domain.Document{Name: "a.pdf", DeclaredType: "application/pdf", Data: []byte("just some notes")}, true},
		{"png content", domain.Document{Name: "a.pdf", Data: append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)}, true},
		{"declared with parameters", domain.Document{Name: "a.pdf", DeclaredType: "application/pdf; charset=binary", Data: pdfBytes(100)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDocument(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.CodeUploadRejected, domain.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_ValidateDocument_SizeMessage(t *testing.T) {
	v := NewValidator(config.UploadConfig{MaxBytes: 10 << 20})
	err := v.ValidateDocument(domain.Document{Data: pdfBytes(11 << 20)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10MB")
	assert.Equal(t, int64(10<<20), v.MaxUploadBytes())
}

func TestValidator_ValidateSignup(t *testing.T) {
	v := NewValidator(config.UploadConfig{})
	valid := domain.SignupForm{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "abc123",
		Age:      17,
		Academic: domain.AcademicHighSchool,
	}

	assert.Empty(t, v.ValidateSignup(valid))

	tests := []struct {
		name   string
		mutate func(f *domain.SignupForm)
		field  string
	}{
		{"username with digits", func(f *domain.SignupForm) { f.Username = "alice1" }, "username"},
		{"missing username", func(f *domain.SignupForm) { f.Username = "" }, "username"},
		{"bad email", func(f *domain.SignupForm) { f.Email = "alice@" }, "email"},
		{"short password", func(f *domain.SignupForm) { f.Password = "a1" }, "password"},
		{"password without digits", func(f *domain.SignupForm) { f.Password = "abcdefg" }, "password"},
		{"too young", func(f *domain.SignupForm) { f.Age = 12 }, "age"},
		{"too old", func(f *domain.SignupForm) { f.Age = 121 }, "age"},
		{"unknown academic level", func(f *domain.SignupForm) { f.Academic = "PhD" }, "academic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			errs := v.ValidateSignup(form)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidator_ValidateLogin(t *testing.T) {
	v := NewValidator(config.UploadConfig{})

	assert.Empty(t, v.ValidateLogin(domain.Credentials{Email: "a@b.co", Password: "x"}))
	assert.Len(t, v.ValidateLogin(domain.Credentials{}), 2)
}

func TestValidator_ValidateOption(t *testing.T) {
	v := NewValidator(config.UploadConfig{})

	opt, err := v.ValidateOption("c")
	require.NoError(t, err)
	assert.Equal(t, domain.OptionC, opt)

	_, err = v.ValidateOption("Z")
	assert.Equal(t, domain.CodeInvalidInput, domain.CodeOf(err))
}

func TestValidator_ValidateSectionID(t *testing.T) {
	v := NewValidator(config.UploadConfig{})

	assert.NoError(t, v.ValidateSectionID("66b1f0c2e4"))
	assert.Error(t, v.ValidateSectionID(""))
	assert.Error(t, v.ValidateSectionID("a b"))
}
