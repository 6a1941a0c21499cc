package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the backend puts in its access token.
// The client decodes them without verification, for display only.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// Email returns the subject, which the backend sets to the account email
func (c *TokenClaims) Email() string {
	return c.Subject
}

// ExpiresAtTime returns the expiry, or the zero time when the claim is absent
func (c *TokenClaims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
