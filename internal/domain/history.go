package domain

import (
	"context"
	"encoding/json"
	"time"
)

// HistoryEntry records the outcome of one upload
type HistoryEntry struct {
	ID        string          `bson:"_id" json:"id"`
	Tool      string          `bson:"tool" json:"tool"`
	FileName  string          `bson:"file_name" json:"file_name"`
	Status    string          `bson:"status" json:"status"` // "succeeded" or "failed"
	Error     string          `bson:"error,omitempty" json:"error,omitempty"`
	Result    json.RawMessage `bson:"result,omitempty" json:"result,omitempty"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
}

// HistoryRepository keeps recent upload outcomes, newest first
type HistoryRepository interface {
	// Append stores an entry
	Append(ctx context.Context, entry *HistoryEntry) error

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]*HistoryEntry, error)

	// Clear removes every entry
	Clear(ctx context.Context) error
}
