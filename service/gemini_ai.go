package service

import (
	"context"
	"errors"
	"sync"

	"github.com/careline/chatbot-be/types"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiService implements EmbeddingProvider and CompletionProvider on top
// of the Gemini API. It rotates through a pool of API keys when a call
// fails, which rides out per-key rate limits.
type GeminiService struct {
	apiKeys        []string
	currentKey     int
	client         *genai.Client
	modelName      string
	embeddingModel string
	mu             sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName, embeddingModel string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:        apiKeys,
		currentKey:     0,
		modelName:      modelName,
		embeddingModel: embeddingModel,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

// getClient snapshots the current client; rotateAPIKey swaps it under the
// same lock.
func (s *GeminiService) getClient() *genai.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	em := s.getClient().EmbeddingModel(s.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		if rerr := s.rotateAPIKey(); rerr != nil {
			return nil, &types.ProviderError{Provider: "gemini", Op: "embed", Err: rerr}
		}
		em = s.getClient().EmbeddingModel(s.embeddingModel)
		res, err = em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, &types.ProviderError{Provider: "gemini", Op: "embed", Transient: true, Err: err}
		}
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, &types.ProviderError{
			Provider: "gemini",
			Op:       "embed",
			Err:      errors.New("no embedding returned"),
		}
	}
	return res.Embedding.Values, nil
}

func (s *GeminiService) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	model := s.getClient().GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	var prompt string
	history := make([]*genai.Content, 0, len(messages))
	for i, msg := range messages {
		if i == len(messages)-1 && msg.Role == types.RoleUser {
			prompt = msg.Content
			break
		}
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  role,
		})
	}
	if prompt == "" {
		return "", &types.ProviderError{
			Provider: "gemini",
			Op:       "complete",
			Err:      errors.New("no user message to respond to"),
		}
	}

	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		if rerr := s.rotateAPIKey(); rerr != nil {
			return "", &types.ProviderError{Provider: "gemini", Op: "complete", Err: rerr}
		}
		model = s.getClient().GenerativeModel(s.modelName)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
		chat = model.StartChat()
		chat.History = history
		resp, err = chat.SendMessage(ctx, genai.Text(prompt))
		if err != nil {
			return "", &types.ProviderError{Provider: "gemini", Op: "complete", Transient: true, Err: err}
		}
	}
	if len(resp.Candidates) == 0 {
		return "", &types.ProviderError{
			Provider: "gemini",
			Op:       "complete",
			Err:      errors.New("no response generated"),
		}
	}

	content := ""
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content += string(text)
			}
		}
	}
	return content, nil
}
