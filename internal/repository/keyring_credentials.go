package repository

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name entries are stored under in the OS keyring
const KeyringService = "mobipent"

// KeyringCredentialStore implements domain.CredentialStore using the OS keyring
// (macOS Keychain, Secret Service, Windows Credential Manager)
type KeyringCredentialStore struct {
	service string
}

// NewKeyringCredentialStore creates a keyring-backed credential store
func NewKeyringCredentialStore(service string) *KeyringCredentialStore {
	if service == "" {
		service = KeyringService
	}
	return &KeyringCredentialStore{service: service}
}

// Get returns the stored value, or "" if nothing is stored under key
func (s *KeyringCredentialStore) Get(key string) (string, error) {
	value, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read keyring entry: %w", err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (s *KeyringCredentialStore) Set(key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("failed to write keyring entry: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing entry is not an error.
func (s *KeyringCredentialStore) Delete(key string) error {
	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry: %w", err)
	}
	return nil
}
