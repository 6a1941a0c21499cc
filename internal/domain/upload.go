package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// UploadResult is the backend's JSON report, kept opaque.
// Raw holds the body exactly as received; Value is its decoded form.
type UploadResult struct {
	Raw   json.RawMessage
	Value any
}

// ParseUploadResult decodes body as JSON. A body that is not valid JSON
// produces an error and no result.
func ParseUploadResult(body []byte) (*UploadResult, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("malformed JSON response: %w", err)
	}
	raw := make(json.RawMessage, len(body))
	copy(raw, body)
	return &UploadResult{Raw: raw, Value: v}, nil
}

// Pretty renders the result indented by two spaces for display
func (r *UploadResult) Pretty() string {
	if r == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return string(r.Raw)
	}
	return buf.String()
}

// MarshalJSON emits the raw body unchanged
func (r *UploadResult) MarshalJSON() ([]byte, error) {
	if r == nil || len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// UploadRequest combines a file, a tool name and the bearer token for one call.
// Comprehensive selects /analyze/comprehensive and ignores Tool; otherwise Tool
// is sent verbatim to /analyze/tool.
type UploadRequest struct {
	File          FileDescriptor
	Tool          string
	Token         string
	Comprehensive bool
}

// AnalysisBackend is the remote MobiPent service.
// Every error it returns wraps ErrRequestFailed.
type AnalysisBackend interface {
	// Login exchanges credentials for a bearer token
	Login(ctx context.Context, email, password string) (string, error)

	// Signup creates an account and returns the backend's payload
	Signup(ctx context.Context, email, password string) (map[string]any, error)

	// Ping reports whether GET / answered with a 2xx status
	Ping(ctx context.Context) bool

	// Analyze uploads the file as multipart/form-data, reading its content from src
	// while the request streams, and returns the parsed JSON report
	Analyze(ctx context.Context, req UploadRequest, src FileSource) (*UploadResult, error)
}
