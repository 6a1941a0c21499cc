package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisHistoryNewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	repo := NewRedisHistoryRepository(newTestRedis(t), 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, &domain.HistoryEntry{
			ID:        fmt.Sprintf("entry-%d", i),
			Tool:      domain.ToolStaticAnalysis,
			FileName:  "app.apk",
			Status:    domain.CallSucceeded.String(),
			Result:    json.RawMessage(`{"ok":true}`),
			CreatedAt: time.Now(),
		}))
	}

	entries, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3, "the list is trimmed to the configured size")
	assert.Equal(t, "entry-4", entries[0].ID)
	assert.Equal(t, "entry-2", entries[2].ID)
	assert.JSONEq(t, `{"ok":true}`, string(entries[0].Result))

	limited, err := repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "entry-4", limited[0].ID)
}

func TestRedisHistoryClear(t *testing.T) {
	ctx := context.Background()
	repo := NewRedisHistoryRepository(newTestRedis(t), 10)

	require.NoError(t, repo.Append(ctx, &domain.HistoryEntry{ID: "a", Status: "failed", Error: "request failed"}))
	require.NoError(t, repo.Clear(ctx))

	entries, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
