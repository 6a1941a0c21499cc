package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/telemetry"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// UploadOptions tunes the upload flow
type UploadOptions struct {
	// RequireToken fails locally with domain.ErrNotAuthenticated instead of
	// sending "Bearer " when no token is stored
	RequireToken bool

	// BatchConcurrency bounds parallel uploads in Batch
	BatchConcurrency int
}

// UploadService runs the authenticated upload flow
type UploadService struct {
	backend domain.AnalysisBackend
	session *Session
	source  domain.FileSource
	history domain.HistoryRepository // optional
	metrics *telemetry.UploadMetrics // optional
	opts    UploadOptions
}

// NewUploadService creates a new upload service. history and metrics may be nil.
func NewUploadService(
	backend domain.AnalysisBackend,
	session *Session,
	source domain.FileSource,
	history domain.HistoryRepository,
	metrics *telemetry.UploadMetrics,
	opts UploadOptions,
) *UploadService {
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 1
	}
	return &UploadService{
		backend: backend,
		session: session,
		source:  source,
		history: history,
		metrics: metrics,
		opts:    opts,
	}
}

// Upload sends file to /analyze/tool with tool as the tool_name field. The tool
// is free text and is sent as given, even when empty. The token is read before
// anything is sent; a failed call returns a nil result.
func (s *UploadService) Upload(ctx context.Context, file domain.FileDescriptor, tool string) (*domain.UploadResult, error) {
	return s.send(ctx, domain.UploadRequest{File: file, Tool: tool})
}

// WholeTest runs the comprehensive scan on file
func (s *UploadService) WholeTest(ctx context.Context, file domain.FileDescriptor) (*domain.UploadResult, error) {
	return s.send(ctx, domain.UploadRequest{File: file, Comprehensive: true})
}

func (s *UploadService) send(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error) {
	token, err := s.session.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
	}
	if token == "" && s.opts.RequireToken {
		return nil, domain.ErrNotAuthenticated
	}
	req.Token = token

	start := time.Now()
	result, err := s.backend.Analyze(ctx, req, s.source)
	elapsed := time.Since(start)

	status := domain.CallSucceeded.String()
	if err != nil {
		status = domain.CallFailed.String()
		result = nil
	}

	metricTool, historyTool := req.Tool, req.Tool
	if req.Comprehensive {
		metricTool, historyTool = telemetry.ComprehensiveTool, domain.ToolWholeTest
	}
	s.metrics.Record(ctx, metricTool, status, elapsed)
	s.record(ctx, req.File, historyTool, status, result, err)

	if err != nil {
		return nil, err
	}

	log.Printf("[Upload] %s finished in %s", req.File.DisplayName(), elapsed.Round(time.Millisecond))
	return result, nil
}

// RunTool checks the backend is reachable and then uploads file for tool.
// An unreachable backend stops the flow before any upload.
func (s *UploadService) RunTool(ctx context.Context, file domain.FileDescriptor, tool string) (*domain.UploadResult, error) {
	if !s.backend.Ping(ctx) {
		return nil, fmt.Errorf("%w: backend not reachable", domain.ErrRequestFailed)
	}
	return s.Upload(ctx, file, tool)
}

// Ping reports whether the backend answers
func (s *UploadService) Ping(ctx context.Context) bool {
	return s.backend.Ping(ctx)
}

// BatchResult is the outcome of one tool in a batch
type BatchResult struct {
	Tool   string
	Result *domain.UploadResult
	Err    error
}

// Batch uploads file once per tool with bounded parallelism. Each upload is
// independent: one failure does not cancel the others. Results keep the order of tools.
func (s *UploadService) Batch(ctx context.Context, file domain.FileDescriptor, tools []string) []BatchResult {
	results := make([]BatchResult, len(tools))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BatchConcurrency)

	for i, tool := range tools {
		g.Go(func() error {
			result, err := s.Upload(gctx, file, tool)
			results[i] = BatchResult{Tool: tool, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// record appends the outcome to history. Failures are logged, never returned.
func (s *UploadService) record(ctx context.Context, file domain.FileDescriptor, tool, status string, result *domain.UploadResult, callErr error) {
	if s.history == nil {
		return
	}

	entry := &domain.HistoryEntry{
		ID:        ulid.Make().String(),
		Tool:      tool,
		FileName:  file.DisplayName(),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if result != nil {
		entry.Result = result.Raw
	}

	if err := s.history.Append(ctx, entry); err != nil {
		log.Printf("[Upload] Failed to record history: %v", err)
	}
}
