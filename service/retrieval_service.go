package service

import (
	"context"
	"strings"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/types"
)

// RetrievalService answers "what do we know about X": it embeds a query
// and pulls the best-matching passages from the index. An empty result is
// a normal outcome, not an error.
type RetrievalService struct {
	embedder    EmbeddingProvider
	index       *IndexService
	defaultTopK int
	minScore    float32
	maxRetries  int
}

func NewRetrievalService(embedder EmbeddingProvider, index *IndexService, cfg config.RetrievalConfig, maxRetries int) *RetrievalService {
	defaultTopK := cfg.DefaultTopK
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &RetrievalService{
		embedder:    embedder,
		index:       index,
		defaultTopK: defaultTopK,
		minScore:    cfg.MinScore,
		maxRetries:  maxRetries,
	}
}

// Retrieve embeds the query and searches the index. k <= 0 selects the
// configured default; minScore < 0 selects the configured floor.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int, minScore float32, filter types.SearchFilter) ([]types.ScoredPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.NewValidationError("query", "must not be empty")
	}
	if k <= 0 {
		k = s.defaultTopK
	}
	if minScore < 0 {
		minScore = s.minScore
	}

	var vec []float32
	err := retryWithBackoff(ctx, s.maxRetries, func() error {
		var embedErr error
		vec, embedErr = s.embedder.Embed(ctx, query)
		return embedErr
	})
	if err != nil {
		return nil, err
	}
	return s.index.Search(ctx, vec, k, minScore, filter)
}

// ContextText joins retrieved passages into a prompt context block.
func ContextText(hits []types.ScoredPassage) string {
	if len(hits) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		parts = append(parts, hit.Passage.Text)
	}
	return strings.Join(parts, "\n---\n")
}
