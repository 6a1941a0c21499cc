package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/mobipent/internal/domain"
)

// Session owns the single credential token. It is created once by the
// application and passed to every service that needs the token.
type Session struct {
	store domain.CredentialStore
}

// NewSession creates a session over store
func NewSession(store domain.CredentialStore) *Session {
	return &Session{store: store}
}

// Token returns the stored token, or "" when nobody is logged in
func (s *Session) Token() (string, error) {
	token, err := s.store.Get(domain.CredentialTokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// SetToken replaces the stored token
func (s *Session) SetToken(token string) error {
	if err := s.store.Set(domain.CredentialTokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear deletes the stored token
func (s *Session) Clear() error {
	if err := s.store.Delete(domain.CredentialTokenKey); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// LoggedIn reports whether a token is stored
func (s *Session) LoggedIn() bool {
	token, err := s.Token()
	return err == nil && token != ""
}

// Claims decodes the stored token without verifying its signature.
// The claims are for display only. It returns nil, nil when no token is stored.
func (s *Session) Claims() (*domain.TokenClaims, error) {
	token, err := s.Token()
	if err != nil || token == "" {
		return nil, err
	}

	claims := &domain.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}
