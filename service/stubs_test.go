package service

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/database"
	"github.com/careline/chatbot-be/repository"
	"github.com/careline/chatbot-be/types"
)

// stubEmbedder embeds text as a bag-of-words vector. Deterministic, and
// overlapping vocabulary produces positive cosine similarity, which is
// all the retrieval tests need.
type stubEmbedder struct {
	mu       sync.Mutex
	calls    int
	failures int
	block    chan struct{}
}

var errEmbedDown = errors.New("embedding provider down")

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	fail := e.failures != 0
	if e.failures > 0 {
		e.failures--
	}
	block := e.block
	e.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail {
		return nil, errEmbedDown
	}
	return embedText(text), nil
}

// failAlways makes every future call fail until reset.
func (e *stubEmbedder) failAlways() {
	e.mu.Lock()
	e.failures = -1
	e.mu.Unlock()
}

func (e *stubEmbedder) recover() {
	e.mu.Lock()
	e.failures = 0
	e.mu.Unlock()
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "in": true,
	"at": true, "is": true, "was": true, "to": true, "of": true,
	"did": true, "where": true, "and": true, "for": true,
}

func embedText(text string) []float32 {
	vec := make([]float32, 64)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if stopwords[tok] {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%64]++
	}
	return vec
}

// stubCompletion scripts completion behavior per call. When fn is set it
// decides everything; otherwise reply/err are returned as-is.
type stubCompletion struct {
	mu    sync.Mutex
	reply string
	err   error
	fn    func(system string, messages []types.Message) (string, error)

	calls       int
	lastSystem  string
	systemCalls []string
}

func (c *stubCompletion) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	c.mu.Lock()
	c.calls++
	c.lastSystem = system
	c.systemCalls = append(c.systemCalls, system)
	fn := c.fn
	reply, err := c.reply, c.err
	c.mu.Unlock()

	if fn != nil {
		return fn(system, messages)
	}
	return reply, err
}

type testStack struct {
	embedder      *stubEmbedder
	completion    *stubCompletion
	memIndex      *database.MemoryIndex
	documents     repository.DocumentRepo
	conversations repository.ConversationRepo

	chunker             *ChunkerService
	indexService        *IndexService
	retrievalService    *RetrievalService
	conversationService *ConversationService
	bookingService      *BookingService
	routerService       *RouterService
}

func newTestStack() *testStack {
	embedder := &stubEmbedder{}
	completion := &stubCompletion{}
	memIndex := database.NewMemoryIndex()
	documents := repository.NewMemoryDocumentRepo()
	conversations := repository.NewMemoryConversationRepo()

	chunker := NewChunkerService(config.ChunkerConfig{MaxChunkSize: 200, OverlapSize: 40})
	indexService := NewIndexService(documents, memIndex, chunker, embedder, 20, 1)
	retrievalService := NewRetrievalService(embedder, indexService, config.RetrievalConfig{
		DefaultTopK: 3,
		MaxTopK:     20,
		MinScore:    0.0,
	}, 1)
	conversationService := NewConversationService(conversations, config.ConversationConfig{
		WindowMode:    "count",
		WindowEntries: 10,
	})
	bookingService := NewBookingService(config.BookingConfig{})
	routerService := NewRouterService(completion, conversationService, retrievalService, bookingService, 1)

	return &testStack{
		embedder:            embedder,
		completion:          completion,
		memIndex:            memIndex,
		documents:           documents,
		conversations:       conversations,
		chunker:             chunker,
		indexService:        indexService,
		retrievalService:    retrievalService,
		conversationService: conversationService,
		bookingService:      bookingService,
		routerService:       routerService,
	}
}

func (s *testStack) addDocument(ctx context.Context, content string, meta types.Metadata) (*types.Document, error) {
	return s.indexService.AddDocument(ctx, types.AddDocumentRequest{Content: content, Metadata: meta})
}
