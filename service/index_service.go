package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/careline/chatbot-be/database"
	"github.com/careline/chatbot-be/repository"
	"github.com/careline/chatbot-be/types"
	"github.com/careline/chatbot-be/utils"
)

const lockStripes = 64

const scoreEpsilon = 1e-6

// IndexService owns the document -> passage pipeline: chunking, embedding,
// and the commit into the vector index. The document store stays
// authoritative; the index is derived and can be rebuilt from it at any
// time.
//
// Concurrency model: embedding happens outside all locks (provider calls
// are slow), per-document stripes serialize add/delete on the same id, and
// commitMu guards the commit step against the rebuild swap. While a
// rebuild is running every mutating call fails fast with
// ErrRebuildInProgress; reads keep being served from the old contents.
type IndexService struct {
	documents  repository.DocumentRepo
	index      database.VectorIndex
	chunker    *ChunkerService
	embedder   EmbeddingProvider
	maxTopK    int
	maxRetries int

	rebuilding atomic.Bool
	commitMu   sync.RWMutex
	stripes    [lockStripes]sync.Mutex
}

func NewIndexService(
	documents repository.DocumentRepo,
	index database.VectorIndex,
	chunker *ChunkerService,
	embedder EmbeddingProvider,
	maxTopK int,
	maxRetries int,
) *IndexService {
	if maxTopK <= 0 {
		maxTopK = 20
	}
	return &IndexService{
		documents:  documents,
		index:      index,
		chunker:    chunker,
		embedder:   embedder,
		maxTopK:    maxTopK,
		maxRetries: maxRetries,
	}
}

// AddDocument chunks, embeds and indexes one document. The document id is
// derived from content, so re-adding identical content replaces the
// previous version instead of duplicating it. Either the document ends up
// fully indexed and stored, or nothing of it remains visible.
func (s *IndexService) AddDocument(ctx context.Context, req types.AddDocumentRequest) (*types.Document, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, types.NewValidationError("content", "must not be empty")
	}

	docID := utils.ContentHash(content)
	drafts := s.chunker.Chunk(content, req.Metadata)
	if len(drafts) == 0 {
		return nil, types.NewValidationError("content", "no indexable text")
	}

	passages, chunkIDs, err := s.embedDrafts(ctx, docID, drafts)
	if err != nil {
		return nil, err
	}

	if s.rebuilding.Load() {
		return nil, types.ErrRebuildInProgress
	}
	stripe := s.stripeFor(docID)
	stripe.Lock()
	defer stripe.Unlock()
	s.commitMu.RLock()
	defer s.commitMu.RUnlock()
	if s.rebuilding.Load() {
		return nil, types.ErrRebuildInProgress
	}

	if err := s.index.DeleteByDocument(ctx, docID); err != nil {
		return nil, fmt.Errorf("failed to clear previous passages: %w", err)
	}
	if err := s.index.UpsertPassages(ctx, passages); err != nil {
		// Leftover passages have no owning document; the recovery sweep
		// deletes them as orphans.
		_ = s.index.DeleteByDocument(ctx, docID)
		return nil, fmt.Errorf("failed to index passages: %w", err)
	}

	doc := &types.Document{
		ID:        docID,
		Content:   content,
		Metadata:  req.Metadata,
		ChunkIDs:  chunkIDs,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		_ = s.index.DeleteByDocument(ctx, docID)
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	return doc, nil
}

// BulkAddDocuments indexes a batch, continuing past per-document failures.
func (s *IndexService) BulkAddDocuments(ctx context.Context, req types.BulkAddDocumentsRequest) (*types.BulkAddDocumentsResponse, error) {
	if len(req.Documents) == 0 {
		return nil, types.NewValidationError("documents", "must not be empty")
	}
	resp := &types.BulkAddDocumentsResponse{}
	for i, addReq := range req.Documents {
		doc, err := s.AddDocument(ctx, addReq)
		if err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("document %d: %v", i, err))
			continue
		}
		resp.DocumentsAdded++
		resp.TotalChunks += len(doc.ChunkIDs)
	}
	return resp, nil
}

// DeleteDocument removes a document and all of its passages. Vectors go
// first so an interruption leaves at worst a document with missing
// passages, which the recovery monitor re-indexes.
func (s *IndexService) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.documents.GetDocument(ctx, id); err != nil {
		return err
	}
	if s.rebuilding.Load() {
		return types.ErrRebuildInProgress
	}
	stripe := s.stripeFor(id)
	stripe.Lock()
	defer stripe.Unlock()
	s.commitMu.RLock()
	defer s.commitMu.RUnlock()
	if s.rebuilding.Load() {
		return types.ErrRebuildInProgress
	}

	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete passages: %w", err)
	}
	return s.documents.DeleteDocument(ctx, id)
}

func (s *IndexService) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	return s.documents.GetDocument(ctx, id)
}

func (s *IndexService) ListDocuments(ctx context.Context, page, limit int64) ([]types.Document, int64, error) {
	return s.documents.ListDocuments(ctx, page, limit)
}

// ListVectors returns the passages currently indexed for a document,
// ordered by chunk index.
func (s *IndexService) ListVectors(ctx context.Context, documentID string) ([]types.Passage, error) {
	if _, err := s.documents.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	passages, err := s.index.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	sort.Slice(passages, func(i, j int) bool {
		return passages[i].ChunkIndex < passages[j].ChunkIndex
	})
	return passages, nil
}

// Search runs a vector similarity query. The requested limit is capped,
// hits below minScore are dropped, and equal scores are broken by document
// recency so fresher knowledge wins.
func (s *IndexService) Search(ctx context.Context, vector []float32, limit int, minScore float32, filter types.SearchFilter) ([]types.ScoredPassage, error) {
	if limit <= 0 {
		return nil, types.NewValidationError("limit", "must be positive")
	}
	if limit > s.maxTopK {
		limit = s.maxTopK
	}
	hits, err := s.index.Search(ctx, vector, limit, filter)
	if err != nil {
		return nil, err
	}

	filtered := hits[:0]
	for _, hit := range hits {
		if hit.Score >= minScore {
			filtered = append(filtered, hit)
		}
	}
	hits = filtered

	createdAt := make(map[string]int64)
	for i := range hits {
		docID := hits[i].Passage.DocumentID
		if _, ok := createdAt[docID]; !ok {
			doc, err := s.documents.GetDocument(ctx, docID)
			if err != nil {
				createdAt[docID] = 0
			} else {
				createdAt[docID] = doc.CreatedAt
			}
		}
		hits[i].DocCreatedAt = createdAt[docID]
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if diff := hits[i].Score - hits[j].Score; diff > scoreEpsilon || diff < -scoreEpsilon {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocCreatedAt > hits[j].DocCreatedAt
	})
	return hits, nil
}

// IntegrityCheck compares the authoritative chunk id mapping against the
// index contents. Orphans are index passages no document claims; missing
// passages make the report corrupt because search results are incomplete
// until a rebuild.
func (s *IndexService) IntegrityCheck(ctx context.Context) (*types.IntegrityReport, error) {
	docs, err := s.documents.AllDocuments(ctx)
	if err != nil {
		return nil, err
	}
	expected := make(map[string]bool)
	for _, doc := range docs {
		for _, chunkID := range doc.ChunkIDs {
			expected[chunkID] = true
		}
	}

	actualIDs, err := s.index.ListPassageIDs(ctx)
	if err != nil {
		return nil, err
	}
	actual := make(map[string]bool, len(actualIDs))
	for _, id := range actualIDs {
		actual[id] = true
	}

	report := &types.IntegrityReport{
		DocumentCount: len(docs),
		PassageCount:  len(actualIDs),
	}
	for _, id := range actualIDs {
		if !expected[id] {
			report.OrphanedPassageIDs = append(report.OrphanedPassageIDs, id)
		}
	}
	for id := range expected {
		if !actual[id] {
			report.MissingPassageIDs = append(report.MissingPassageIDs, id)
		}
	}
	sort.Strings(report.OrphanedPassageIDs)
	sort.Strings(report.MissingPassageIDs)
	report.Corrupt = len(report.MissingPassageIDs) > 0
	return report, nil
}

// CleanupOrphans deletes passages no document claims.
func (s *IndexService) CleanupOrphans(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.commitMu.RLock()
	defer s.commitMu.RUnlock()
	return s.index.DeletePassages(ctx, ids)
}

// Rebuild re-derives the entire index from stored documents. Chunking and
// embedding happen against a staged set while reads keep hitting the old
// contents; only the final swap takes the write lock. Concurrent mutating
// calls are rejected with ErrRebuildInProgress for the whole duration.
func (s *IndexService) Rebuild(ctx context.Context) error {
	if !s.rebuilding.CompareAndSwap(false, true) {
		return types.ErrRebuildInProgress
	}
	defer s.rebuilding.Store(false)

	// Drain in-flight commits before reading the authoritative state.
	s.commitMu.Lock()
	s.commitMu.Unlock()

	docs, err := s.documents.AllDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents for rebuild: %w", err)
	}

	var staged []types.Passage
	for _, doc := range docs {
		drafts := s.chunker.Chunk(doc.Content, doc.Metadata)
		passages, chunkIDs, err := s.embedDrafts(ctx, doc.ID, drafts)
		if err != nil {
			return fmt.Errorf("failed to re-embed document %s: %w", doc.ID, err)
		}
		staged = append(staged, passages...)

		// Chunker config changes can shift the chunk id set; keep the
		// stored mapping in sync with what the rebuild indexes.
		if !equalStrings(doc.ChunkIDs, chunkIDs) {
			doc.ChunkIDs = chunkIDs
			if err := s.documents.CreateDocument(ctx, &doc); err != nil {
				return fmt.Errorf("failed to update chunk ids for %s: %w", doc.ID, err)
			}
		}
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if err := s.index.ReplaceAll(ctx, staged); err != nil {
		return fmt.Errorf("failed to swap index contents: %w", err)
	}
	return nil
}

// Rebuilding reports whether a full rebuild currently holds the write gate.
func (s *IndexService) Rebuilding() bool {
	return s.rebuilding.Load()
}

func (s *IndexService) embedDrafts(ctx context.Context, docID string, drafts []types.Passage) ([]types.Passage, []string, error) {
	passages := make([]types.Passage, len(drafts))
	chunkIDs := make([]string, len(drafts))
	for i, draft := range drafts {
		draft.ID = utils.PassageID(docID, draft.ChunkIndex)
		draft.DocumentID = docID

		var vec []float32
		err := retryWithBackoff(ctx, s.maxRetries, func() error {
			var embedErr error
			vec, embedErr = s.embedder.Embed(ctx, draft.Text)
			return embedErr
		})
		if err != nil {
			return nil, nil, err
		}
		draft.Embedding = vec
		passages[i] = draft
		chunkIDs[i] = draft.ID
	}
	return passages, chunkIDs, nil
}

func (s *IndexService) stripeFor(docID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(docID))
	return &s.stripes[h.Sum32()%lockStripes]
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
