package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"study-quiz/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the study service puts in its bearer tokens.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// ParseToken reads identity and expiry from a bearer token without verifying
// the signature. The study service verifies; the client only needs to know who
// is signed in and when to ask them again. Opaque tokens yield a zero identity
// and no expiry.
func ParseToken(token string) (domain.Identity, time.Time) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.Identity{}, time.Time{}
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	return domain.Identity{
		Username: strings.TrimSpace(claims.Username),
		Email:    strings.TrimSpace(claims.Email),
	}, expiry
}

// TokenKey digests the exact token string. Claims are read unverified, so two
// tokens naming the same user still map to different keys.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
