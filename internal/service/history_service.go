package service

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/mobipent/internal/domain"
)

// HistoryService reads recorded upload outcomes
type HistoryService struct {
	repo  domain.HistoryRepository // nil when history is disabled
	limit int
}

// NewHistoryService creates a history service returning at most limit entries
func NewHistoryService(repo domain.HistoryRepository, limit int) *HistoryService {
	return &HistoryService{repo: repo, limit: limit}
}

// Enabled reports whether a history backend is configured
func (s *HistoryService) Enabled() bool {
	return s.repo != nil
}

// Recent returns the newest entries. With history disabled it returns an empty list.
func (s *HistoryService) Recent(ctx context.Context) ([]*domain.HistoryEntry, error) {
	if s.repo == nil {
		return []*domain.HistoryEntry{}, nil
	}
	entries, err := s.repo.Recent(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

// Clear removes all entries
func (s *HistoryService) Clear(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Clear(ctx)
}
