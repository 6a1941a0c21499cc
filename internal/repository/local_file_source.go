package repository

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mansoorceksport/mobipent/internal/domain"
)

// APKMimeType is the type Android package archives are uploaded with
const APKMimeType = "application/vnd.android.package-archive"

func init() {
	// not in Go's builtin table
	_ = mime.AddExtensionType(".apk", APKMimeType)
}

// LocalFileSource opens file:// URIs and bare paths from the local filesystem
type LocalFileSource struct{}

// NewLocalFileSource creates a local filesystem source
func NewLocalFileSource() *LocalFileSource {
	return &LocalFileSource{}
}

// Open opens the file for reading
func (s *LocalFileSource) Open(ctx context.Context, file domain.FileDescriptor) (io.ReadCloser, error) {
	p, err := LocalPath(file.URI)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open local file: %w", err)
	}
	return f, nil
}

// LocalPath converts a file:// URI or bare path to a filesystem path
func LocalPath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid file uri %q: %w", uri, err)
	}
	if !strings.EqualFold(u.Scheme, "file") {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, uri)
	}
	return filepath.FromSlash(u.Path), nil
}

// DescribeLocalFile builds a FileDescriptor for a path on disk.
// The file must exist and be a regular file.
func DescribeLocalFile(path string) (domain.FileDescriptor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.FileDescriptor{}, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return domain.FileDescriptor{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return domain.FileDescriptor{}, fmt.Errorf("%s is not a regular file", path)
	}

	return domain.FileDescriptor{
		URI:      (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		Name:     filepath.Base(abs),
		MimeType: MimeTypeFor(abs),
	}, nil
}

// MimeTypeFor guesses a MIME type from the file extension; unknown extensions yield ""
func MimeTypeFor(name string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if t == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return t
	}
	return mediaType
}
