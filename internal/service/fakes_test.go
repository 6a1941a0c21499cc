package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/mansoorceksport/mobipent/internal/domain"
)

// memoryStore is an in-memory domain.CredentialStore
type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.values[key], nil
}

func (m *memoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *memoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// fakeBackend records calls and answers from configured values
type fakeBackend struct {
	mu sync.Mutex

	token     string
	loginErr  error
	signupErr error
	reachable bool

	// analyzeErr maps tool name to the failure it should produce
	analyzeErr map[string]error
	report     string

	logins   int
	pings    int
	requests []domain.UploadRequest
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

func (f *fakeBackend) Signup(ctx context.Context, email, password string) (map[string]any, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return map[string]any{"message": "User created"}, nil
}

func (f *fakeBackend) Ping(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.reachable
}

func (f *fakeBackend) Analyze(ctx context.Context, req domain.UploadRequest, src domain.FileSource) (*domain.UploadResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	err := f.analyzeErr[req.Tool]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	rc, openErr := src.Open(ctx, req.File)
	if openErr != nil {
		return nil, errors.Join(domain.ErrRequestFailed, openErr)
	}
	_, _ = io.Copy(io.Discard, rc)
	rc.Close()

	report := f.report
	if report == "" {
		report = `{"tool_used":"` + req.Tool + `"}`
	}
	return domain.ParseUploadResult([]byte(report))
}

// stringSource serves the same content for any descriptor
type stringSource struct{}

func (stringSource) Open(ctx context.Context, file domain.FileDescriptor) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("apk")), nil
}

// memoryHistory is an in-memory domain.HistoryRepository
type memoryHistory struct {
	mu      sync.Mutex
	entries []*domain.HistoryEntry
	err     error
}

func (h *memoryHistory) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append([]*domain.HistoryEntry{entry}, h.entries...)
	return nil
}

func (h *memoryHistory) Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > len(h.entries) {
		limit = len(h.entries)
	}
	return h.entries[:limit], nil
}

func (h *memoryHistory) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	return nil
}
