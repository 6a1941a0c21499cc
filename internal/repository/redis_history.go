package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const historyKey = "mobipent:history"

// RedisHistoryRepository implements domain.HistoryRepository as a capped Redis list
type RedisHistoryRepository struct {
	client *redis.Client
	key    string
	max    int64
}

// NewRedisHistoryRepository creates a history list keeping at most maxEntries
func NewRedisHistoryRepository(client *redis.Client, maxEntries int) *RedisHistoryRepository {
	return &RedisHistoryRepository{
		client: client,
		key:    historyKey,
		max:    int64(maxEntries),
	}
}

// Append pushes the entry to the head of the list and trims the tail
func (r *RedisHistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.HistoryAppend",
		trace.WithAttributes(attribute.String("cache.key", r.key)),
	)
	defer span.End()

	data, err := json.Marshal(entry)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal error: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, r.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis history append error: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first
func (r *RedisHistoryRepository) Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.HistoryRecent",
		trace.WithAttributes(
			attribute.String("cache.key", r.key),
			attribute.Int("history.limit", limit),
		),
	)
	defer span.End()

	if limit <= 0 {
		return []*domain.HistoryEntry{}, nil
	}

	items, err := r.client.LRange(ctx, r.key, 0, int64(limit)-1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("redis history range error: %w", err)
	}

	entries := make([]*domain.HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("unmarshal error: %w", err)
		}
		entries = append(entries, &entry)
	}

	span.SetAttributes(attribute.Int("history.count", len(entries)))
	return entries, nil
}

// Clear deletes the list
func (r *RedisHistoryRepository) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
