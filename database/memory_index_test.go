package database

import (
	"context"
	"testing"

	"github.com/careline/chatbot-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passage(id, docID string, embedding []float32, tags ...string) types.Passage {
	return types.Passage{
		ID:         id,
		DocumentID: docID,
		Text:       "text for " + id,
		Embedding:  embedding,
		Metadata:   types.Metadata{Tags: tags},
	}
}

func TestMemoryIndexSearchOrdersByScore(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.UpsertPassages(ctx, []types.Passage{
		passage("a:0", "a", []float32{1, 0, 0}),
		passage("b:0", "b", []float32{0.7, 0.7, 0}),
		passage("c:0", "c", []float32{0, 1, 0}),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2, types.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a:0", hits[0].Passage.ID)
	assert.Equal(t, "b:0", hits[1].Passage.ID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestMemoryIndexFilters(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.UpsertPassages(ctx, []types.Passage{
		passage("a:0", "a", []float32{1, 0, 0}, "public"),
		passage("b:0", "b", []float32{1, 0, 0}, "internal"),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10, types.SearchFilter{Tags: []string{"public"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a:0", hits[0].Passage.ID)
}

func TestMemoryIndexDeleteByDocument(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.UpsertPassages(ctx, []types.Passage{
		passage("a:0", "a", []float32{1}),
		passage("a:1", "a", []float32{1}),
		passage("b:0", "b", []float32{1}),
	}))
	require.NoError(t, idx.DeleteByDocument(ctx, "a"))

	ids, err := idx.ListPassageIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b:0"}, ids)
}

func TestMemoryIndexReplaceAll(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.UpsertPassages(ctx, []types.Passage{
		passage("old:0", "old", []float32{1}),
	}))
	require.NoError(t, idx.ReplaceAll(ctx, []types.Passage{
		passage("new:0", "new", []float32{1}),
		passage("new:1", "new", []float32{1}),
	}))

	ids, err := idx.ListPassageIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new:0", "new:1"}, ids)
}
