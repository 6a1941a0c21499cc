package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/infrastructure/mobipent"
)

// User-facing messages for failed auth calls
const (
	MissingFieldsMessage = "Please enter both email and password."
	LoginFailedMessage   = "Invalid credentials or network issue."
	SignupFailedMessage  = "Signup failed"
	SignupSuccessMessage = "Account created! Please log in."
)

// AuthService handles login, signup and logout against the backend
type AuthService struct {
	backend domain.AnalysisBackend
	session *Session
}

// NewAuthService creates a new auth service
func NewAuthService(backend domain.AnalysisBackend, session *Session) *AuthService {
	return &AuthService{
		backend: backend,
		session: session,
	}
}

// Login exchanges credentials for a token and stores it in the session.
// Empty fields fail with domain.ErrMissingFields before any network call.
func (s *AuthService) Login(ctx context.Context, email, password string) error {
	if err := checkFields(email, password); err != nil {
		return err
	}

	token, err := s.backend.Login(ctx, email, password)
	if err != nil {
		log.Printf("[Auth] Login failed for %s: %v", email, err)
		return err
	}

	if err := s.session.SetToken(token); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
	}

	log.Printf("[Auth] Logged in as %s", email)
	return nil
}

// Signup creates an account. It does not log in.
func (s *AuthService) Signup(ctx context.Context, email, password string) (map[string]any, error) {
	if err := checkFields(email, password); err != nil {
		return nil, err
	}

	payload, err := s.backend.Signup(ctx, email, password)
	if err != nil {
		log.Printf("[Auth] Signup failed for %s: %v", email, err)
		return nil, err
	}

	log.Printf("[Auth] Signed up %s", email)
	return payload, nil
}

// Logout forgets the stored token
func (s *AuthService) Logout() error {
	return s.session.Clear()
}

// Session returns the session the service writes to
func (s *AuthService) Session() *Session {
	return s.session
}

// LoginErrorMessage is the alert text for a failed login
func LoginErrorMessage(err error) string {
	if errors.Is(err, domain.ErrMissingFields) {
		return MissingFieldsMessage
	}
	return LoginFailedMessage
}

// SignupErrorMessage is the alert text for a failed signup: the backend's
// detail when it sent one, a generic message otherwise
func SignupErrorMessage(err error) string {
	if errors.Is(err, domain.ErrMissingFields) {
		return MissingFieldsMessage
	}
	if detail := mobipent.DetailFromError(err); detail != "" {
		return detail
	}
	return SignupFailedMessage
}

func checkFields(email, password string) error {
	if email == "" || password == "" {
		return domain.ErrMissingFields
	}
	return nil
}
