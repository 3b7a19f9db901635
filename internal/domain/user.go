package domain

// Identity is who the bearer token was issued to.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Credentials are exchanged for a bearer token.
type Credentials struct {
	Email    string
	Password string
}

// Academic levels accepted at signup.
const (
	AcademicHighSchool     = "High School"
	AcademicUndergraduated = "Undergraduated"
)

// SignupForm is the account registration payload.
type SignupForm struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Academic string `json:"academic"`
}
