package database

import (
	"context"

	"github.com/careline/chatbot-be/types"
)

// VectorIndex is the vector search structure holding embedded passages.
// The document store stays authoritative: the index can always be rebuilt
// from stored document content.
type VectorIndex interface {
	// UpsertPassages inserts embedded passages. Passages for one document
	// are inserted together so a document is either fully indexed or not
	// indexed at all from the caller's perspective.
	UpsertPassages(ctx context.Context, passages []types.Passage) error

	// DeleteByDocument removes every passage whose DocumentID matches.
	DeleteByDocument(ctx context.Context, documentID string) error

	// DeletePassages removes specific passages by id (orphan cleanup).
	DeletePassages(ctx context.Context, ids []string) error

	// Search returns up to limit passages by vector similarity, scores
	// non-increasing. An empty result is not an error.
	Search(ctx context.Context, vector []float32, limit int, filter types.SearchFilter) ([]types.ScoredPassage, error)

	// ListPassageIDs returns the ids of every passage the index holds.
	ListPassageIDs(ctx context.Context) ([]string, error)

	// ListByDocument returns the passages indexed for one document.
	ListByDocument(ctx context.Context, documentID string) ([]types.Passage, error)

	// ReplaceAll swaps the entire index contents for the given passages.
	// Reads served while the replacement is being prepared see the old
	// contents.
	ReplaceAll(ctx context.Context, passages []types.Passage) error

	// Reset drops all passages.
	Reset(ctx context.Context) error
}
