package mobipent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySource serves fixed content and counts opens
type memorySource struct {
	mu      sync.Mutex
	content []byte
	err     error
	opens   int
}

func (s *memorySource) Open(ctx context.Context, file domain.FileDescriptor) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.content)), nil
}

// capturedUpload is what the test server saw for one multipart request
type capturedUpload struct {
	Path          string
	Authorization string
	ContentType   string
	ToolName      string
	FileName      string
	FilePartType  string
	FileContent   []byte
	HasToolField  bool
}

func newUploadServer(t *testing.T, status int, response string) (*httptest.Server, *[]capturedUpload) {
	t.Helper()
	var mu sync.Mutex
	var seen []capturedUpload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(10<<20))

		c := capturedUpload{
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		}
		if v, ok := r.MultipartForm.Value["tool_name"]; ok {
			c.HasToolField = true
			c.ToolName = v[0]
		}
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		c.FileName = fh.Filename
		c.FilePartType = fh.Header.Get("Content-Type")
		c.FileContent, _ = io.ReadAll(f)

		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestAnalyzeToolSendsBearerAndMultipart(t *testing.T) {
	srv, seen := newUploadServer(t, http.StatusOK, `{"tool_used":"Static Analysis","file":"x.apk","result":{"summary":[]}}`)
	client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())
	src := &memorySource{content: []byte("PK\x03\x04apk-bytes")}

	result, err := client.Analyze(context.Background(), domain.UploadRequest{
		File:  domain.FileDescriptor{URI: "file:///x.apk", Name: "x.apk"},
		Tool:  "Static Analysis",
		Token: "T1",
	}, src)
	require.NoError(t, err)

	require.Len(t, *seen, 1, "exactly one request is issued")
	got := (*seen)[0]
	assert.Equal(t, "/analyze/tool", got.Path)
	assert.Equal(t, "Bearer T1", got.Authorization)
	assert.Contains(t, got.ContentType, "multipart/form-data")
	assert.True(t, got.HasToolField)
	assert.Equal(t, "Static Analysis", got.ToolName)
	assert.Equal(t, "x.apk", got.FileName)
	assert.Equal(t, domain.DefaultMimeType, got.FilePartType)
	assert.Equal(t, []byte("PK\x03\x04apk-bytes"), got.FileContent)
	assert.Equal(t, 1, src.opens)

	value, ok := result.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Static Analysis", value["tool_used"])
}

func TestAnalyzeWithoutTokenStillSends(t *testing.T) {
	srv, seen := newUploadServer(t, http.StatusOK, `{}`)
	client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())

	_, err := client.Analyze(context.Background(), domain.UploadRequest{
		File: domain.FileDescriptor{URI: "/tmp/x.apk", Name: "x.apk", MimeType: "application/vnd.android.package-archive"},
		Tool: "Manifest Check",
	}, &memorySource{content: []byte("data")})
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	// net/http trims the trailing space when the header is read back
	assert.Equal(t, "Bearer", (*seen)[0].Authorization)
	assert.Equal(t, "application/vnd.android.package-archive", (*seen)[0].FilePartType)
}

func TestAnalyzeComprehensiveOmitsToolField(t *testing.T) {
	srv, seen := newUploadServer(t, http.StatusOK, `{"analysis_type":"OWASP MASVS/MASTG Comprehensive"}`)
	client := NewClientWithHTTP(Config{BaseURL: srv.URL + "/"}, srv.Client())

	_, err := client.Analyze(context.Background(), domain.UploadRequest{
		File:          domain.FileDescriptor{URI: "/tmp/app.apk"},
		Tool:          "Static Analysis",
		Token:         "T1",
		Comprehensive: true,
	}, &memorySource{content: []byte("data")})
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	assert.Equal(t, "/analyze/comprehensive", (*seen)[0].Path)
	assert.False(t, (*seen)[0].HasToolField)
	assert.Equal(t, "app.apk", (*seen)[0].FileName)
}

func TestAnalyzeEmptyToolStaysOnToolEndpoint(t *testing.T) {
	srv, seen := newUploadServer(t, http.StatusOK, `{"tool_used":""}`)
	client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())

	_, err := client.Analyze(context.Background(), domain.UploadRequest{
		File:  domain.FileDescriptor{URI: "/tmp/x.apk"},
		Token: "T1",
	}, &memorySource{content: []byte("data")})
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	assert.Equal(t, "/analyze/tool", (*seen)[0].Path)
	assert.True(t, (*seen)[0].HasToolField, "an empty tool_name is still sent")
	assert.Empty(t, (*seen)[0].ToolName)
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
	}{
		{name: "non-2xx", status: http.StatusUnauthorized, response: `{"detail":"Not authenticated"}`},
		{name: "server error", status: http.StatusInternalServerError, response: `Internal Server Error`},
		{name: "malformed json", status: http.StatusOK, response: `{"tool_used": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUploadServer(t, tt.status, tt.response)
			client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())

			result, err := client.Analyze(context.Background(), domain.UploadRequest{
				File:  domain.FileDescriptor{URI: "/tmp/x.apk"},
				Tool:  "Static Analysis",
				Token: "T1",
			}, &memorySource{content: []byte("data")})

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrRequestFailed))
			assert.Nil(t, result, "a failed call never returns a partial result")
		})
	}
}

func TestAnalyzeUnreadableSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())

	_, err := client.Analyze(context.Background(), domain.UploadRequest{
		File: domain.FileDescriptor{URI: "/missing.apk"},
		Tool: "Static Analysis",
	}, &memorySource{err: errors.New("no such file")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRequestFailed))
}

func TestAnalyzeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := NewClientWithHTTP(Config{BaseURL: baseURL}, &http.Client{})
	_, err := client.Analyze(context.Background(), domain.UploadRequest{
		File: domain.FileDescriptor{URI: "/tmp/x.apk"},
		Tool: "Static Analysis",
	}, &memorySource{content: []byte("data")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRequestFailed))
}

func TestLogin(t *testing.T) {
	var gotBody credentialsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"access_token":"T1","token_type":"bearer"}`))
	}))
	defer srv.Close()

	client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())
	token, err := client.Login(context.Background(), "a@b.com", "x")

	require.NoError(t, err)
	assert.Equal(t, "T1", token)
	assert.Equal(t, credentialsRequest{Email: "a@b.com", Password: "x"}, gotBody)
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}))
	defer srv.Close()

	client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())
	token, err := client.Login(context.Background(), "a@b.com", "wrong")

	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, domain.ErrRequestFailed))
}

func TestSignupSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signup", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
	}))
	defer srv.Close()

	client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())
	_, err := client.Signup(context.Background(), "a@b.com", "x")

	require.Error(t, err)
	assert.Equal(t, "Email already registered", DetailFromError(err))
}

func TestSignupDetailIgnoresValidationLists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","email"],"msg":"field required"}]}`))
	}))
	defer srv.Close()

	client := NewClientWithHTTP(Config{BaseURL: srv.URL}, srv.Client())
	_, err := client.Signup(context.Background(), "", "")

	require.Error(t, err)
	assert.Empty(t, DetailFromError(err))
}

func TestPing(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"running"}`))
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	assert.True(t, NewClientWithHTTP(Config{BaseURL: up.URL}, up.Client()).Ping(context.Background()))
	assert.False(t, NewClientWithHTTP(Config{BaseURL: down.URL}, down.Client()).Ping(context.Background()))
}
