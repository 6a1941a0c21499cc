package domain

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"
)

// DefaultMimeType is used when the file-selection surface reports no type
const DefaultMimeType = "application/octet-stream"

// FileDescriptor is a user-selected file: a location reference plus its metadata.
// It is consumed by exactly one upload and never persisted.
type FileDescriptor struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
}

// ContentType returns the MIME type, falling back to DefaultMimeType
func (f FileDescriptor) ContentType() string {
	if f.MimeType == "" {
		return DefaultMimeType
	}
	return f.MimeType
}

// DisplayName returns Name, or the last path element of the URI when Name is empty
func (f FileDescriptor) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	if u, err := url.Parse(f.URI); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(f.URI)
}

// Scheme returns the lowercased URI scheme; bare paths report "file"
func (f FileDescriptor) Scheme() string {
	i := strings.Index(f.URI, "://")
	if i <= 0 {
		return "file"
	}
	return strings.ToLower(f.URI[:i])
}

// FileSource opens the content behind a FileDescriptor's URI.
// Implementations must not read anything until Open is called.
type FileSource interface {
	Open(ctx context.Context, file FileDescriptor) (io.ReadCloser, error)
}

// FilePicker is the file-selection surface.
// It returns ErrCancelled when the user dismisses it without choosing.
type FilePicker interface {
	Pick(ctx context.Context) (FileDescriptor, error)
}
