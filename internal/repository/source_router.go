package repository

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/mansoorceksport/mobipent/internal/domain"
)

// SourceRouter dispatches to a FileSource by URI scheme
type SourceRouter struct {
	sources map[string]domain.FileSource
}

// NewSourceRouter creates a router with local files registered for "file"
func NewSourceRouter() *SourceRouter {
	r := &SourceRouter{sources: make(map[string]domain.FileSource)}
	r.Register("file", NewLocalFileSource())
	return r
}

// Register adds or replaces the source for a scheme
func (r *SourceRouter) Register(scheme string, src domain.FileSource) {
	r.sources[scheme] = src
}

// Open implements domain.FileSource
func (r *SourceRouter) Open(ctx context.Context, file domain.FileDescriptor) (io.ReadCloser, error) {
	src, ok := r.sources[file.Scheme()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, file.URI)
	}
	return src.Open(ctx, file)
}

// DescribeURI builds a FileDescriptor for a local path or a remote URI.
// Local files must exist; remote URIs are not contacted until upload.
func DescribeURI(uri string) (domain.FileDescriptor, error) {
	file := domain.FileDescriptor{URI: uri}
	if file.Scheme() == "file" {
		p, err := LocalPath(uri)
		if err != nil {
			return domain.FileDescriptor{}, err
		}
		return DescribeLocalFile(p)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return domain.FileDescriptor{}, fmt.Errorf("invalid uri %q: %w", uri, err)
	}
	file.Name = path.Base(u.Path)
	if file.Name == "/" || file.Name == "." {
		return domain.FileDescriptor{}, fmt.Errorf("uri %q has no file name", uri)
	}
	file.MimeType = MimeTypeFor(file.Name)
	return file, nil
}
