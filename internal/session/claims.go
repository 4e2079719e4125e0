package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryOf reads the exp claim of an access token without verifying its signature.
// Opaque tokens yield the zero time.
func expiryOf(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
