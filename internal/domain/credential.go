package domain

// CredentialTokenKey is the fixed name the bearer token is stored under
const CredentialTokenKey = "jwt"

// CredentialStore persists a single named string outside process memory.
// Get returns "" with a nil error when nothing is stored.
type CredentialStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
