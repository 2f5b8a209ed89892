package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/careline/chatbot-be/types"
)

// Responder handles one classified turn. Implementations must be safe for
// concurrent use; the router dispatches to them from every chat
// connection.
type Responder interface {
	Handle(ctx context.Context, userID, message string, window []types.ConversationEntry) (string, error)
}

const (
	emergencyReply = "This sounds urgent. Please call our emergency line right away at the number on our website, or go to the nearest emergency room if you are in severe pain or bleeding heavily. A member of our team will follow up with you as soon as possible."

	bookingHandoffReply = "Our scheduling system is temporarily unavailable. Please leave your preferred date and time and a member of our team will confirm your appointment as soon as possible."

	stockContext = "General practice information: we offer consultations, cleanings, fillings, and cosmetic treatments. Opening hours are Monday to Friday, 08:00 to 18:00."

	salesSystemPrompt = "You are a friendly sales assistant for a dental practice. Use the provided practice information to answer questions about treatments, prices and offers. If the information does not cover the question, say so and offer to connect the customer with the team. Practice information:\n%s"

	supportSystemPrompt = "You are a helpful support assistant for a dental practice. Use the provided practice information to answer the customer's question clearly and concisely. If you cannot answer from the information, apologize and offer a callback. Practice information:\n%s"

	scheduleSystemPrompt = "You are a scheduling assistant for a dental practice. The customer wants to book an appointment. Available slots for %s:\n%s\nHelp the customer pick a slot and confirm the details they need to provide."
)

// emergencyResponder replies with a fixed escalation template. No
// retrieval, no completion: the emergency path must not depend on any
// collaborator being up.
type emergencyResponder struct{}

func (r *emergencyResponder) Handle(ctx context.Context, userID, message string, window []types.ConversationEntry) (string, error) {
	return emergencyReply, nil
}

// ragResponder grounds a completion in retrieved passages. Sales and
// support differ only in their system prompt. Retrieval failures and
// empty results fall back to a stock context block rather than failing
// the turn.
type ragResponder struct {
	completion CompletionProvider
	retrieval  *RetrievalService
	system     string
	maxRetries int
}

func (r *ragResponder) Handle(ctx context.Context, userID, message string, window []types.ConversationEntry) (string, error) {
	contextBlock := stockContext
	if hits, err := r.retrieval.Retrieve(ctx, message, 0, -1, types.SearchFilter{}); err == nil {
		if text := ContextText(hits); text != "" {
			contextBlock = text
		}
	}

	system := fmt.Sprintf(r.system, contextBlock)
	messages := append(windowMessages(window), types.Message{Role: types.RoleUser, Content: message})

	var reply string
	err := retryWithBackoff(ctx, r.maxRetries, func() error {
		var completeErr error
		reply, completeErr = r.completion.Complete(ctx, system, messages)
		return completeErr
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// scheduleResponder walks the booking flow: probe the scheduling system,
// fetch slots for the requested date and let the completion phrase the
// options. A message naming a concrete open slot is a confirmation and
// books it directly. A down collaborator degrades to a handoff reply
// instead of an error.
type scheduleResponder struct {
	completion CompletionProvider
	booking    *BookingService
	maxRetries int
}

func (r *scheduleResponder) Handle(ctx context.Context, userID, message string, window []types.ConversationEntry) (string, error) {
	if !r.booking.Healthy(ctx) {
		return bookingHandoffReply, nil
	}

	date := extractDate(message)
	avail, err := r.booking.CheckAvailability(ctx, date)
	if err != nil {
		return bookingHandoffReply, nil
	}

	if start := extractTime(message); start != "" {
		return r.book(ctx, userID, avail, start)
	}
	slots := formatSlots(avail.Slots)

	system := fmt.Sprintf(scheduleSystemPrompt, avail.Date, slots)
	messages := append(windowMessages(window), types.Message{Role: types.RoleUser, Content: message})

	var reply string
	err = retryWithBackoff(ctx, r.maxRetries, func() error {
		var completeErr error
		reply, completeErr = r.completion.Complete(ctx, system, messages)
		return completeErr
	})
	if err != nil {
		// Completion is a nicety here; the slot list itself answers.
		return fmt.Sprintf("Available slots for %s:\n%s", avail.Date, slots), nil
	}
	return reply, nil
}

// book confirms the slot the customer named. A time that is not open
// falls back to listing what is.
func (r *scheduleResponder) book(ctx context.Context, userID string, avail *AvailabilityData, start string) (string, error) {
	open := false
	for _, slot := range avail.Slots {
		if slot.Start == start {
			open = true
			break
		}
	}
	if !open {
		return fmt.Sprintf("%s is not open on %s. Available slots:\n%s", start, avail.Date, formatSlots(avail.Slots)), nil
	}

	result, err := r.booking.Book(ctx, BookingRequest{
		UserID: userID,
		Date:   avail.Date,
		Start:  start,
	})
	if err != nil || !result.Confirmed {
		return bookingHandoffReply, nil
	}
	return fmt.Sprintf("Your appointment on %s at %s is confirmed, booking reference %s. See you then!", avail.Date, start, result.BookingID), nil
}

// availabilityResponder lists open slots for a date, filtered to slots
// long enough for the requested treatment when the knowledge base states
// a duration.
type availabilityResponder struct {
	booking   *BookingService
	retrieval *RetrievalService
}

func (r *availabilityResponder) Handle(ctx context.Context, userID, message string, window []types.ConversationEntry) (string, error) {
	date := extractDate(message)
	avail, err := r.booking.CheckAvailability(ctx, date)
	if err != nil {
		return bookingHandoffReply, nil
	}

	slots := avail.Slots
	if duration := r.treatmentDuration(ctx, message); duration > 0 {
		var fitting []AvailabilitySlot
		for _, slot := range slots {
			if slotMinutes(slot) >= duration {
				fitting = append(fitting, slot)
			}
		}
		slots = fitting
	}

	if len(slots) == 0 {
		return fmt.Sprintf("There are no open slots on %s. Would another day work for you?", avail.Date), nil
	}
	return fmt.Sprintf("We have the following openings on %s:\n%s", avail.Date, formatSlots(slots)), nil
}

// treatmentDuration looks up the mentioned treatment in the knowledge
// base and extracts a duration in minutes if one is stated.
func (r *availabilityResponder) treatmentDuration(ctx context.Context, message string) int {
	hits, err := r.retrieval.Retrieve(ctx, message, 0, -1, types.SearchFilter{})
	if err != nil {
		return 0
	}
	for _, hit := range hits {
		if m := durationPattern.FindStringSubmatch(hit.Passage.Text); m != nil {
			if minutes, err := strconv.Atoi(m[1]); err == nil {
				return minutes
			}
		}
	}
	return 0
}

var (
	durationPattern = regexp.MustCompile(`(\d+)\s*minutes`)
	isoDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	timePattern     = regexp.MustCompile(`\b([01]?\d|2[0-3]):[0-5]\d\b`)
)

// extractDate pulls a requested date out of the message, defaulting to
// today. Dates come back in ISO form for the booking API.
func extractDate(message string) string {
	if m := isoDatePattern.FindString(message); m != "" {
		return m
	}
	lower := strings.ToLower(message)
	if strings.Contains(lower, "tomorrow") {
		return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}
	return time.Now().Format("2006-01-02")
}

// extractTime pulls a slot time out of the message, normalized to HH:MM.
// Empty when the message names no time.
func extractTime(message string) string {
	m := timePattern.FindString(message)
	if m == "" {
		return ""
	}
	parsed, err := time.Parse("15:04", m)
	if err != nil {
		return m
	}
	return parsed.Format("15:04")
}

func slotMinutes(slot AvailabilitySlot) int {
	start, err := time.Parse("15:04", slot.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse("15:04", slot.End)
	if err != nil {
		return 0
	}
	return int(end.Sub(start).Minutes())
}

func formatSlots(slots []AvailabilitySlot) string {
	if len(slots) == 0 {
		return "no open slots"
	}
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf("- %s to %s", slot.Start, slot.End))
	}
	return strings.Join(lines, "\n")
}

func windowMessages(window []types.ConversationEntry) []types.Message {
	messages := make([]types.Message, 0, len(window))
	for _, entry := range window {
		messages = append(messages, types.Message{
			Role:    entry.Role,
			Content: entry.Text,
		})
	}
	return messages
}
