package repository

import (
	"context"
	"errors"

	"github.com/careline/chatbot-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConversationRepo stores per-user conversation history. Entries are
// append-only; eviction from the context window is lazy, so everything
// stays available for pagination and audit.
type ConversationRepo interface {
	AppendEntry(ctx context.Context, entry *types.ConversationEntry) error
	LastTimestamp(ctx context.Context, userID string) (int64, error)
	// Window returns the most recent n entries with Timestamp > since,
	// ordered oldest first. since == 0 means no age cutoff.
	Window(ctx context.Context, userID string, n int64, since int64) ([]types.ConversationEntry, error)
	Paginate(ctx context.Context, userID string, offset, limit int64) ([]types.ConversationEntry, int64, error)
	Stats(ctx context.Context, userID string) (*types.ConversationStats, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	// MarkProcessed records a request id, returning false when it was
	// already recorded. Used to dedup retried webhook deliveries.
	MarkProcessed(ctx context.Context, requestID string) (bool, error)
	ClearProcessed(ctx context.Context) error
}

type conversationRepo struct {
	entries   *mongo.Collection
	processed *mongo.Collection
}

func NewConversationRepo(entries, processed *mongo.Collection) ConversationRepo {
	return &conversationRepo{
		entries:   entries,
		processed: processed,
	}
}

func (r *conversationRepo) AppendEntry(ctx context.Context, entry *types.ConversationEntry) error {
	_, err := r.entries.InsertOne(ctx, entry)
	return err
}

func (r *conversationRepo) LastTimestamp(ctx context.Context, userID string) (int64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var entry types.ConversationEntry
	err := r.entries.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.Timestamp, nil
}

func (r *conversationRepo) Window(ctx context.Context, userID string, n int64, since int64) ([]types.ConversationEntry, error) {
	filter := bson.M{"user_id": userID}
	if since > 0 {
		filter["timestamp"] = bson.M{"$gt": since}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(n)
	cursor, err := r.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []types.ConversationEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	reverseEntries(entries)
	return entries, nil
}

func (r *conversationRepo) Paginate(ctx context.Context, userID string, offset, limit int64) ([]types.ConversationEntry, int64, error) {
	filter := bson.M{"user_id": userID}
	total, err := r.entries.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	cursor, err := r.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var entries []types.ConversationEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *conversationRepo) Stats(ctx context.Context, userID string) (*types.ConversationStats, error) {
	filter := bson.M{"user_id": userID}
	total, err := r.entries.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	userCount, err := r.entries.CountDocuments(ctx, bson.M{"user_id": userID, "role": types.RoleUser})
	if err != nil {
		return nil, err
	}
	stats := &types.ConversationStats{
		UserID:         userID,
		TotalEntries:   total,
		UserEntries:    userCount,
		AssistantCount: total - userCount,
	}
	if total == 0 {
		return stats, nil
	}

	var first, last types.ConversationEntry
	if err := r.entries.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: 1}})).Decode(&first); err != nil {
		return nil, err
	}
	if err := r.entries.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})).Decode(&last); err != nil {
		return nil, err
	}
	stats.FirstTimestamp = first.Timestamp
	stats.LastTimestamp = last.Timestamp
	return stats, nil
}

func (r *conversationRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.entries.Distinct(ctx, "user_id", bson.M{}).Decode(&ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *conversationRepo) MarkProcessed(ctx context.Context, requestID string) (bool, error) {
	_, err := r.processed.InsertOne(ctx, bson.M{"_id": requestID})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *conversationRepo) ClearProcessed(ctx context.Context) error {
	_, err := r.processed.DeleteMany(ctx, bson.M{})
	return err
}

func reverseEntries(entries []types.ConversationEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
