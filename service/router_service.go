package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/careline/chatbot-be/types"
)

const classifierSystemPrompt = `You classify a customer message for a dental practice into exactly one intent.
Intents:
- emergency: acute pain, bleeding, injury, anything urgent
- schedule: wants to book, move or cancel an appointment
- sales: asks about treatments, prices, offers
- support: general questions, complaints, everything else
- availability: asks which slots or times are open
Respond with JSON only: {"intent": "<intent>", "confidence": <0..1>}`

const degradedReply = "We are having temporary technical difficulties. Your message has been received and a member of our team will get back to you shortly."

// RouterService runs a full chat turn: dedup, window load, intent
// classification and dispatch to the matching responder. Every turn
// produces a best-effort reply; only total provider unavailability yields
// the degraded response text.
type RouterService struct {
	completion    CompletionProvider
	conversations *ConversationService
	responders    map[types.IntentCategory]Responder
	maxRetries    int
}

func NewRouterService(
	completion CompletionProvider,
	conversations *ConversationService,
	retrieval *RetrievalService,
	booking *BookingService,
	maxRetries int,
) *RouterService {
	responders := map[types.IntentCategory]Responder{
		types.IntentEmergency: &emergencyResponder{},
		types.IntentSales: &ragResponder{
			completion: completion,
			retrieval:  retrieval,
			system:     salesSystemPrompt,
			maxRetries: maxRetries,
		},
		types.IntentSupport: &ragResponder{
			completion: completion,
			retrieval:  retrieval,
			system:     supportSystemPrompt,
			maxRetries: maxRetries,
		},
		types.IntentSchedule: &scheduleResponder{
			completion: completion,
			booking:    booking,
			maxRetries: maxRetries,
		},
		types.IntentAvailability: &availabilityResponder{
			booking:   booking,
			retrieval: retrieval,
		},
	}
	return &RouterService{
		completion:    completion,
		conversations: conversations,
		responders:    responders,
		maxRetries:    maxRetries,
	}
}

// Respond handles one inbound message for a user. requestID may be empty
// (no dedup); a repeated requestID returns a duplicate marker without
// touching the conversation again.
func (s *RouterService) Respond(ctx context.Context, userID, message, requestID string) (*types.TurnResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, types.NewValidationError("user_id", "must not be empty")
	}
	if strings.TrimSpace(message) == "" {
		return nil, types.NewValidationError("message", "must not be empty")
	}

	fresh, err := s.conversations.MarkProcessed(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return &types.TurnResponse{Intent: types.IntentUnknown, Duplicate: true}, nil
	}

	window, err := s.conversations.Window(ctx, userID)
	if err != nil {
		log.Printf("failed to load window for %s: %v", userID, err)
		window = nil
	}

	// The user entry is recorded before responding; a failed reply still
	// leaves the inbound message in the history.
	if _, err := s.conversations.Append(ctx, userID, types.RoleUser, message); err != nil {
		return nil, err
	}

	cls := s.classify(ctx, message, window)
	responder := s.responders[cls.Category]

	reply, err := responder.Handle(ctx, userID, message, window)
	if err != nil && cls.Category != types.IntentSupport {
		log.Printf("%s responder failed for %s, falling back to support: %v", cls.Category, userID, err)
		reply, err = s.responders[types.IntentSupport].Handle(ctx, userID, message, window)
	}
	if err != nil {
		log.Printf("turn degraded for %s: %v", userID, err)
		return &types.TurnResponse{
			Reply:    degradedReply,
			Intent:   cls.Category,
			Degraded: true,
		}, nil
	}

	if _, err := s.conversations.Append(ctx, userID, types.RoleAssistant, reply); err != nil {
		log.Printf("failed to record assistant reply for %s: %v", userID, err)
	}
	return &types.TurnResponse{
		Reply:  reply,
		Intent: cls.Category,
	}, nil
}

// classify asks the completion provider for an intent label. It never
// fails: provider errors, malformed JSON and unknown labels all land on
// support, and ambiguous free-text output resolves by the fixed priority
// order.
func (s *RouterService) classify(ctx context.Context, message string, window []types.ConversationEntry) types.IntentClassification {
	messages := append(windowMessages(window), types.Message{Role: types.RoleUser, Content: message})

	var raw string
	err := retryWithBackoff(ctx, s.maxRetries, func() error {
		var completeErr error
		raw, completeErr = s.completion.Complete(ctx, classifierSystemPrompt, messages)
		return completeErr
	})
	if err != nil {
		log.Printf("intent classification failed, defaulting to support: %v", err)
		return types.IntentClassification{Category: types.IntentSupport, RawMessage: message}
	}

	var parsed struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	cleaned := stripCodeFences(raw)
	if jsonErr := json.Unmarshal([]byte(cleaned), &parsed); jsonErr == nil {
		if category := types.ParseIntent(parsed.Intent); category != types.IntentUnknown {
			return types.IntentClassification{
				Category:   category,
				Confidence: parsed.Confidence,
				RawMessage: message,
			}
		}
	}

	// Free-text output: take every category the model mentioned and keep
	// the highest-priority one.
	category := scanForIntent(raw)
	return types.IntentClassification{Category: category, RawMessage: message}
}

func scanForIntent(raw string) types.IntentCategory {
	lower := strings.ToLower(raw)
	best := types.IntentUnknown
	for _, candidate := range []types.IntentCategory{
		types.IntentEmergency,
		types.IntentSchedule,
		types.IntentSales,
		types.IntentSupport,
		types.IntentAvailability,
	} {
		if strings.Contains(lower, string(candidate)) && (best == types.IntentUnknown || types.HigherPriority(candidate, best)) {
			best = candidate
		}
	}
	if best == types.IntentUnknown {
		return types.IntentSupport
	}
	return best
}

func stripCodeFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
