package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/mansoorceksport/mobipent/internal/domain"
)

// HTTPFileSource opens http(s) URIs, e.g. presigned download links
type HTTPFileSource struct {
	httpClient *http.Client
}

// NewHTTPFileSource creates an HTTP source using httpClient
func NewHTTPFileSource(httpClient *http.Client) *HTTPFileSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPFileSource{httpClient: httpClient}
}

// Open issues a GET and returns the response body
func (s *HTTPFileSource) Open(ctx context.Context, file domain.FileDescriptor) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", file.URI, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download %s: status %d", file.URI, resp.StatusCode)
	}
	return resp.Body, nil
}
