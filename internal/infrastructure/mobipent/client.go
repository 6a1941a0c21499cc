package mobipent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/mansoorceksport/mobipent/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Endpoint paths, relative to the configured base URL
const (
	pathRoot          = "/"
	pathLogin         = "/login"
	pathSignup        = "/signup"
	pathAnalyzeTool   = "/analyze/tool"
	pathComprehensive = "/analyze/comprehensive"

	fileField = "file"
	toolField = "tool_name"
)

// Config holds backend client configuration
type Config struct {
	BaseURL string        // e.g. http://192.168.1.20:8000
	Timeout time.Duration // 0 disables the client timeout
}

// Client is the MobiPent backend API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// APIError is a non-2xx response. It wraps domain.ErrRequestFailed.
type APIError struct {
	StatusCode int
	Detail     string // FastAPI "detail" field when present
	Body       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return domain.ErrRequestFailed
}

// credentialsRequest is the JSON body for /login and /signup
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the /login response body
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NewClient creates a new backend client
func NewClient(cfg Config) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewClientWithHTTP creates a client around an existing http.Client
func NewClientWithHTTP(cfg Config, httpClient *http.Client) *Client {
	return &Client{config: cfg, httpClient: httpClient}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Login calls POST /login and returns the access token
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := c.postJSON(ctx, pathLogin, credentialsRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: failed to parse login response: %w", domain.ErrRequestFailed, err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: login response has no access_token", domain.ErrRequestFailed)
	}

	return resp.AccessToken, nil
}

// Signup calls POST /signup and returns the opaque success payload
func (c *Client) Signup(ctx context.Context, email, password string) (map[string]any, error) {
	body, err := c.postJSON(ctx, pathSignup, credentialsRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse signup response: %w", domain.ErrRequestFailed, err)
	}
	return payload, nil
}

// Ping calls GET / and reports whether the backend answered with 2xx
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(pathRoot), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[MobiPent] Backend not reachable: %v", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Analyze uploads a file for analysis. A comprehensive request targets
// /analyze/comprehensive with the file only; any other request targets
// /analyze/tool with the tool_name field, even an empty one.
// The file is streamed: src is opened only once the request body is being written.
func (c *Client) Analyze(ctx context.Context, upload domain.UploadRequest, src domain.FileSource) (*domain.UploadResult, error) {
	path := pathAnalyzeTool
	if upload.Comprehensive {
		path = pathComprehensive
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(ctx, mw, upload, src))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+upload.Token)
	req.Header.Set("Accept", "application/json")

	log.Printf("[MobiPent] Uploading %s to %s (tool: %q)", upload.File.DisplayName(), path, upload.Tool)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	result, err := domain.ParseUploadResult(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
	}
	return result, nil
}

// writeMultipart writes the tool field and then the file part, reading content from src
func writeMultipart(ctx context.Context, mw *multipart.Writer, upload domain.UploadRequest, src domain.FileSource) error {
	if !upload.Comprehensive {
		if err := mw.WriteField(toolField, upload.Tool); err != nil {
			return err
		}
	}

	content, err := src.Open(ctx, upload.File)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", upload.File.URI, err)
	}
	defer content.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		fileField, escapeQuotes(upload.File.DisplayName())))
	h.Set("Content-Type", upload.File.ContentType())

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read %s: %w", upload.File.URI, err)
	}

	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %w", domain.ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Printf("[MobiPent] Calling %s", c.url(path))

	return c.do(req)
}

// do executes req and returns the body of a 2xx response.
// Every failure is wrapped in domain.ErrRequestFailed.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", domain.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrRequestFailed, err)
	}

	log.Printf("[MobiPent] Response status: %d, %d bytes", resp.StatusCode, len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(respBody),
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// extractDetail returns the FastAPI-style "detail" message, if the body has a string one
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return detail
}

// DetailFromError returns the backend's human-readable detail carried by err, if any
func DetailFromError(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + path
}
