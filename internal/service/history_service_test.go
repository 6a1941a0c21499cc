package service

import (
	"context"
	"testing"

	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryServiceDisabled(t *testing.T) {
	svc := NewHistoryService(nil, 10)
	assert.False(t, svc.Enabled())

	entries, err := svc.Recent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, svc.Clear(context.Background()))
}

func TestHistoryServiceLimit(t *testing.T) {
	repo := &memoryHistory{}
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Append(context.Background(), &domain.HistoryEntry{ID: id}))
	}

	svc := NewHistoryService(repo, 2)
	entries, err := svc.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].ID)
}
