package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// AccountService registers dev server accounts and issues their access tokens
type AccountService struct {
	repo        domain.AccountRepository
	secret      []byte
	tokenExpiry time.Duration
}

// NewAccountService creates a new account service signing tokens with secret
func NewAccountService(repo domain.AccountRepository, secret string, tokenExpiry time.Duration) *AccountService {
	return &AccountService{
		repo:        repo,
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
	}
}

// Register creates an account. A taken email returns domain.ErrAlreadyExists.
func (s *AccountService) Register(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.Create(ctx, &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
	})
}

// Authenticate checks the credentials and returns a signed access token
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return s.issueToken(account.Email)
}

// VerifyToken validates an access token and returns its claims
func (s *AccountService) VerifyToken(tokenString string) (*domain.TokenClaims, error) {
	claims := &domain.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// issueToken creates an HS256 JWT with the email as subject
func (s *AccountService) issueToken(email string) (string, error) {
	now := time.Now()
	claims := domain.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
