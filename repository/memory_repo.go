package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/careline/chatbot-be/types"
)

// In-memory repository implementations. Selected with the "memory" store
// backend for local development and used throughout the tests.

type memoryDocumentRepo struct {
	mu   sync.RWMutex
	docs map[string]types.Document
}

func NewMemoryDocumentRepo() DocumentRepo {
	return &memoryDocumentRepo{
		docs: make(map[string]types.Document),
	}
}

func (r *memoryDocumentRepo) CreateDocument(ctx context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memoryDocumentRepo) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, &types.NotFoundError{Kind: "document", ID: id}
	}
	return &doc, nil
}

func (r *memoryDocumentRepo) DeleteDocument(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return &types.NotFoundError{Kind: "document", ID: id}
	}
	delete(r.docs, id)
	return nil
}

func (r *memoryDocumentRepo) ListDocuments(ctx context.Context, page, limit int64) ([]types.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	all, err := r.AllDocuments(ctx)
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *memoryDocumentRepo) AllDocuments(ctx context.Context) ([]types.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := make([]types.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

type memoryConversationRepo struct {
	mu        sync.RWMutex
	entries   map[string][]types.ConversationEntry
	processed map[string]bool
}

func NewMemoryConversationRepo() ConversationRepo {
	return &memoryConversationRepo{
		entries:   make(map[string][]types.ConversationEntry),
		processed: make(map[string]bool),
	}
}

func (r *memoryConversationRepo) AppendEntry(ctx context.Context, entry *types.ConversationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.UserID] = append(r.entries[entry.UserID], *entry)
	return nil
}

func (r *memoryConversationRepo) LastTimestamp(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.entries[userID]
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[len(entries)-1].Timestamp, nil
}

func (r *memoryConversationRepo) Window(ctx context.Context, userID string, n int64, since int64) ([]types.ConversationEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.entries[userID]
	var eligible []types.ConversationEntry
	for _, e := range entries {
		if since == 0 || e.Timestamp > since {
			eligible = append(eligible, e)
		}
	}
	if int64(len(eligible)) > n {
		eligible = eligible[int64(len(eligible))-n:]
	}
	out := make([]types.ConversationEntry, len(eligible))
	copy(out, eligible)
	return out, nil
}

func (r *memoryConversationRepo) Paginate(ctx context.Context, userID string, offset, limit int64) ([]types.ConversationEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.entries[userID]
	total := int64(len(entries))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]types.ConversationEntry, end-offset)
	copy(out, entries[offset:end])
	return out, total, nil
}

func (r *memoryConversationRepo) Stats(ctx context.Context, userID string) (*types.ConversationStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.entries[userID]
	stats := &types.ConversationStats{
		UserID:       userID,
		TotalEntries: int64(len(entries)),
	}
	for _, e := range entries {
		if e.Role == types.RoleUser {
			stats.UserEntries++
		} else {
			stats.AssistantCount++
		}
	}
	if len(entries) > 0 {
		stats.FirstTimestamp = entries[0].Timestamp
		stats.LastTimestamp = entries[len(entries)-1].Timestamp
	}
	return stats, nil
}

func (r *memoryConversationRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memoryConversationRepo) MarkProcessed(ctx context.Context, requestID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.processed[requestID] {
		return false, nil
	}
	r.processed[requestID] = true
	return true, nil
}

func (r *memoryConversationRepo) ClearProcessed(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = make(map[string]bool)
	return nil
}
