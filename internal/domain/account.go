package domain

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyExists is returned when an account email is taken
var ErrAlreadyExists = errors.New("already exists")

// Account is a user registered with the dev server
type Account struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// AccountRepository stores dev server accounts
type AccountRepository interface {
	// Create stores a new account; a duplicate email returns ErrAlreadyExists
	Create(ctx context.Context, account *Account) error

	// GetByEmail returns ErrNotFound when no account matches
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// ErrInvalidCredentials is returned when email and password do not match an account
var ErrInvalidCredentials = errors.New("invalid credentials")
