/*
Copyright © 2025 careline
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/database"
	"github.com/careline/chatbot-be/repository"
	"github.com/careline/chatbot-be/service"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// core holds the wired service graph. Commands build it once from config
// and pick the pieces they need.
type core struct {
	cfg         *config.Config
	mongoClient *mongo.Client

	documents     repository.DocumentRepo
	conversations repository.ConversationRepo
	index         database.VectorIndex

	embedder   service.EmbeddingProvider
	completion service.CompletionProvider

	indexService        *service.IndexService
	retrievalService    *service.RetrievalService
	conversationService *service.ConversationService
	bookingService      *service.BookingService
	routerService       *service.RouterService
	monitor             *service.RecoveryMonitor
}

func buildCore(ctx context.Context, cfg *config.Config) (*core, error) {
	c := &core{cfg: cfg}

	switch cfg.AI.Provider {
	case "gemini":
		gemini, err := service.NewGeminiService(cfg.AI.GeminiAPIKeys, cfg.AI.Model, cfg.AI.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("failed to init Gemini provider: %w", err)
		}
		c.embedder, c.completion = gemini, gemini
	default:
		openai := service.NewOpenAIService(cfg.AI.Endpoint, cfg.AI.OpenAIAPIKey, cfg.AI.Model, cfg.AI.EmbeddingModel)
		c.embedder, c.completion = openai, openai
	}
	c.embedder = service.EmbedderWithTimeout(c.embedder, cfg.AI.Timeout)
	c.completion = service.CompletionWithTimeout(c.completion, cfg.AI.Timeout)

	switch cfg.StoreBackend {
	case "memory":
		c.documents = repository.NewMemoryDocumentRepo()
		c.conversations = repository.NewMemoryConversationRepo()
		c.index = database.NewMemoryIndex()
	default:
		mongoClient, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		c.mongoClient = mongoClient
		db := mongoClient.Database(cfg.MongoDatabase)
		c.documents = repository.NewDocumentRepo(db.Collection("documents"))
		c.conversations = repository.NewConversationRepo(
			db.Collection("conversation_entries"),
			db.Collection("processed_requests"),
		)

		index, err := database.NewWeaviateIndex(cfg.WeaviateStoreConfig)
		if err != nil {
			return nil, err
		}
		c.index = index
	}

	chunker := service.NewChunkerService(cfg.Chunker)
	c.indexService = service.NewIndexService(
		c.documents,
		c.index,
		chunker,
		c.embedder,
		cfg.Retrieval.MaxTopK,
		cfg.AI.MaxRetries,
	)
	c.retrievalService = service.NewRetrievalService(c.embedder, c.indexService, cfg.Retrieval, cfg.AI.MaxRetries)
	c.conversationService = service.NewConversationService(c.conversations, cfg.Conversation)
	c.bookingService = service.NewBookingService(cfg.Booking)
	c.routerService = service.NewRouterService(
		c.completion,
		c.conversationService,
		c.retrievalService,
		c.bookingService,
		cfg.AI.MaxRetries,
	)
	c.monitor = service.NewRecoveryMonitor(c.indexService, cfg.Monitor)
	return c, nil
}

// storePing returns a health probe for the document store backend, nil
// for the memory backend.
func (c *core) storePing() func(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return c.mongoClient.Ping(ctx, nil)
	}
}

func (c *core) Close(ctx context.Context) {
	if c.mongoClient != nil {
		_ = c.mongoClient.Disconnect(ctx)
	}
}
