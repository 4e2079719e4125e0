package testing

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingKey = []byte("festa-test-signing-key")

// Token signs an HS256 access token for subject that expires after ttl.
func Token(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	s, err := sign(subject, ttl)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func sign(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}
