package database

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/careline/chatbot-be/types"
)

// MemoryIndex is an in-memory brute-force cosine similarity index. It is
// the local development and test backend; production deployments use the
// Weaviate index.
type MemoryIndex struct {
	mu       sync.RWMutex
	passages map[string]types.Passage
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		passages: make(map[string]types.Passage),
	}
}

func (m *MemoryIndex) UpsertPassages(ctx context.Context, passages []types.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range passages {
		m.passages[p.ID] = p
	}
	return nil
}

func (m *MemoryIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.passages {
		if p.DocumentID == documentID {
			delete(m.passages, id)
		}
	}
	return nil
}

func (m *MemoryIndex) DeletePassages(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.passages, id)
	}
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float32, limit int, filter types.SearchFilter) ([]types.ScoredPassage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]types.ScoredPassage, 0, len(m.passages))
	for _, p := range m.passages {
		if !matchesFilter(p, filter) {
			continue
		}
		results = append(results, types.ScoredPassage{
			Passage: p,
			Score:   cosineSimilarity(vector, p.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MemoryIndex) ListPassageIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.passages))
	for id := range m.passages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryIndex) ListByDocument(ctx context.Context, documentID string) ([]types.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var passages []types.Passage
	for _, p := range m.passages {
		if p.DocumentID == documentID {
			passages = append(passages, p)
		}
	}
	sort.Slice(passages, func(i, j int) bool {
		return passages[i].ChunkIndex < passages[j].ChunkIndex
	})
	return passages, nil
}

// ReplaceAll builds the replacement map first and swaps it in under the
// write lock, so concurrent readers see either the old or the new index,
// never a partially filled one.
func (m *MemoryIndex) ReplaceAll(ctx context.Context, passages []types.Passage) error {
	next := make(map[string]types.Passage, len(passages))
	for _, p := range passages {
		next[p.ID] = p
	}
	m.mu.Lock()
	m.passages = next
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.passages = make(map[string]types.Passage)
	m.mu.Unlock()
	return nil
}

// Corrupt drops passages from the index without touching the document
// store. Test hook for exercising integrity checks and recovery.
func (m *MemoryIndex) Corrupt(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ids) == 0 {
		m.passages = make(map[string]types.Passage)
		return
	}
	for _, id := range ids {
		delete(m.passages, id)
	}
}

// Inject adds a raw passage bypassing the normal pipeline. Test hook for
// creating orphans.
func (m *MemoryIndex) Inject(p types.Passage) {
	m.mu.Lock()
	m.passages[p.ID] = p
	m.mu.Unlock()
}

func matchesFilter(p types.Passage, filter types.SearchFilter) bool {
	if filter.Source != "" && p.Metadata.Source != filter.Source {
		return false
	}
	if len(filter.Tags) > 0 {
		found := false
		for _, want := range filter.Tags {
			for _, have := range p.Metadata.Tags {
				if want == have {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
