package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/database"
	"github.com/careline/chatbot-be/repository"
	"github.com/careline/chatbot-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hangingEmbedder and hangingCompletion never answer on their own; they
// return only once the call context is cancelled, like an unresponsive
// upstream that keeps the connection open.
type hangingEmbedder struct{}

func (hangingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type hangingCompletion struct{}

func (hangingCompletion) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestEmbedderTimeoutBoundsHungProvider(t *testing.T) {
	embedder := EmbedderWithTimeout(hangingEmbedder{}, 50*time.Millisecond)

	start := time.Now()
	_, err := embedder.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCompletionTimeoutBoundsHungProvider(t *testing.T) {
	completion := CompletionWithTimeout(hangingCompletion{}, 50*time.Millisecond)

	start := time.Now()
	_, err := completion.Complete(context.Background(), "system", []types.Message{
		{Role: types.RoleUser, Content: "hello"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTimeoutZeroLeavesProviderUnwrapped(t *testing.T) {
	inner := &stubEmbedder{}
	assert.Same(t, EmbeddingProvider(inner), EmbedderWithTimeout(inner, 0))

	completion := &stubCompletion{}
	assert.Same(t, CompletionProvider(completion), CompletionWithTimeout(completion, 0))
}

// A full turn against a hung provider must come back degraded instead of
// blocking until the client gives up.
func TestRouterDegradesWhenProviderHangs(t *testing.T) {
	embedder := &stubEmbedder{}
	chunker := NewChunkerService(config.ChunkerConfig{MaxChunkSize: 200, OverlapSize: 40})
	indexService := NewIndexService(repository.NewMemoryDocumentRepo(), database.NewMemoryIndex(), chunker, embedder, 20, 1)
	retrievalService := NewRetrievalService(embedder, indexService, config.RetrievalConfig{
		DefaultTopK: 3,
		MaxTopK:     20,
	}, 1)
	conversationService := NewConversationService(repository.NewMemoryConversationRepo(), config.ConversationConfig{
		WindowMode:    "count",
		WindowEntries: 10,
	})
	completion := CompletionWithTimeout(hangingCompletion{}, 50*time.Millisecond)
	router := NewRouterService(completion, conversationService, retrievalService, NewBookingService(config.BookingConfig{}), 1)

	start := time.Now()
	turn, err := router.Respond(context.Background(), "u1", "Is anyone there?", "")
	require.NoError(t, err)
	assert.True(t, turn.Degraded)
	assert.Equal(t, degradedReply, turn.Reply)
	assert.Less(t, time.Since(start), 5*time.Second)
}
