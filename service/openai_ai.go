package service

import (
	"context"
	"errors"
	"strings"

	"github.com/careline/chatbot-be/types"
	"github.com/sashabaranov/go-openai"
)

// OpenAIService implements EmbeddingProvider and CompletionProvider against
// an OpenAI-compatible endpoint (including local LLM servers).
type OpenAIService struct {
	client         *openai.Client
	model          string
	embeddingModel string
}

func NewOpenAIService(baseURL, apiKey, model, embeddingModel string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}
}

func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.embeddingModel),
	})
	if err != nil {
		return nil, &types.ProviderError{
			Provider:  "openai",
			Op:        "embed",
			Transient: isTransientOpenAI(err),
			Err:       err,
		}
	}
	if len(resp.Data) == 0 {
		return nil, &types.ProviderError{
			Provider: "openai",
			Op:       "embed",
			Err:      errors.New("no embedding returned"),
		}
	}
	return resp.Data[0].Embedding, nil
}

func (s *OpenAIService) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages: openaiMessages,
			Model:    s.model,
		},
	)
	if err != nil {
		return "", &types.ProviderError{
			Provider:  "openai",
			Op:        "complete",
			Transient: isTransientOpenAI(err),
			Err:       err,
		}
	}
	if len(resp.Choices) == 0 {
		return "", &types.ProviderError{
			Provider: "openai",
			Op:       "complete",
			Err:      errors.New("no response generated"),
		}
	}
	return resp.Choices[0].Message.Content, nil
}

func isTransientOpenAI(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// Plain transport errors (connection refused, timeouts) are worth a retry.
	return !errors.Is(err, context.Canceled) && !strings.Contains(err.Error(), "invalid")
}
