package domain

import "errors"

// Common errors
var (
	// ErrRequestFailed is the single failure signal for every backend call.
	// Network errors, non-2xx responses and malformed JSON all wrap it.
	ErrRequestFailed = errors.New("request failed")

	ErrMissingFields     = errors.New("email and password are required")
	ErrNotAuthenticated  = errors.New("no stored credential token")
	ErrCancelled         = errors.New("file selection cancelled")
	ErrUnsupportedSource = errors.New("unsupported file location")
	ErrNotFound          = errors.New("record not found")
)
