package service

import (
	"context"
	"testing"

	"github.com/careline/chatbot-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveFindsRelevantPassage(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	_, err := stack.addDocument(ctx, "A cat sat on a mat.", types.Metadata{Title: "cat"})
	require.NoError(t, err)
	_, err = stack.addDocument(ctx, "Parking is available behind the building.", types.Metadata{Title: "parking"})
	require.NoError(t, err)

	hits, err := stack.retrievalService.Retrieve(ctx, "where did the cat sit", 3, -1, types.SearchFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Passage.Text, "cat")
	assert.Greater(t, hits[0].Score, float32(0))
}

func TestRetrieveEmptyResultIsNotAnError(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	_, err := stack.addDocument(ctx, "Opening hours are Monday to Friday.", types.Metadata{})
	require.NoError(t, err)

	hits, err := stack.retrievalService.Retrieve(ctx, "quantum chromodynamics", 3, 0.99, types.SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	stack := newTestStack()

	_, err := stack.retrievalService.Retrieve(context.Background(), "  ", 3, -1, types.SearchFilter{})
	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestRetrieveUsesDefaultTopK(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	for _, content := range []string{"cat one", "cat two", "cat three", "cat four", "cat five"} {
		_, err := stack.addDocument(ctx, content, types.Metadata{})
		require.NoError(t, err)
	}

	hits, err := stack.retrievalService.Retrieve(ctx, "cat", 0, -1, types.SearchFilter{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), 3)
	assert.NotEmpty(t, hits)
}

func TestRetrieveHonorsMetadataFilter(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	_, err := stack.addDocument(ctx, "cat care basics", types.Metadata{Source: "faq"})
	require.NoError(t, err)
	_, err = stack.addDocument(ctx, "cat care advanced", types.Metadata{Source: "internal"})
	require.NoError(t, err)

	hits, err := stack.retrievalService.Retrieve(ctx, "cat care", 5, -1, types.SearchFilter{Source: "faq"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, hit := range hits {
		assert.Equal(t, "faq", hit.Passage.Metadata.Source)
	}
}

func TestRetrieveSurfacesProviderFailure(t *testing.T) {
	stack := newTestStack()
	stack.embedder.failAlways()

	_, err := stack.retrievalService.Retrieve(context.Background(), "anything", 3, -1, types.SearchFilter{})
	require.Error(t, err)
}
