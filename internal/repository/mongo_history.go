package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/mobipent/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const historyCollection = "upload_history"

// MongoHistoryRepository implements domain.HistoryRepository using MongoDB
type MongoHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoHistoryRepository creates a new MongoDB history repository
func NewMongoHistoryRepository(db *mongo.Database) *MongoHistoryRepository {
	collection := db.Collection(historyCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// newest first listing
	_, _ = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})

	return &MongoHistoryRepository{
		collection: collection,
	}
}

// Append inserts the entry
func (r *MongoHistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (r *MongoHistoryRepository) Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	if limit <= 0 {
		return []*domain.HistoryEntry{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*domain.HistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return entries, nil
}

// Clear removes every entry
func (r *MongoHistoryRepository) Clear(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{})
	return err
}
