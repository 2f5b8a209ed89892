package service

import (
	"context"
	"strings"
	"time"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/repository"
	"github.com/careline/chatbot-be/types"
	"github.com/google/uuid"
)

// ConversationService manages per-user histories with a sliding context
// window. Entries are append-only with strictly monotonic timestamps per
// user; eviction from the window is lazy, so old entries stay available
// for pagination and stats.
type ConversationService struct {
	repo          repository.ConversationRepo
	windowMode    string
	windowEntries int
	windowMaxAge  time.Duration
}

func NewConversationService(repo repository.ConversationRepo, cfg config.ConversationConfig) *ConversationService {
	mode := cfg.WindowMode
	if mode != "time" {
		mode = "count"
	}
	entries := cfg.WindowEntries
	if entries <= 0 {
		entries = 10
	}
	maxAge := cfg.WindowMaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &ConversationService{
		repo:          repo,
		windowMode:    mode,
		windowEntries: entries,
		windowMaxAge:  maxAge,
	}
}

// Append records one entry. The timestamp is bumped past the user's last
// entry whenever the clock has not moved, so ordering within a user is
// always strict.
func (s *ConversationService) Append(ctx context.Context, userID, role, text string) (*types.ConversationEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, types.NewValidationError("user_id", "must not be empty")
	}
	if role != types.RoleUser && role != types.RoleAssistant {
		return nil, types.NewValidationError("role", "must be user or assistant")
	}

	last, err := s.repo.LastTimestamp(ctx, userID)
	if err != nil {
		return nil, err
	}
	ts := time.Now().UnixNano()
	if ts <= last {
		ts = last + 1
	}

	entry := &types.ConversationEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Text:      text,
		Timestamp: ts,
	}
	if err := s.repo.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Window returns the current context window for a user, oldest first. In
// count mode that is the most recent n entries; in time mode everything
// newer than the max age, still capped at n so a burst cannot blow up the
// prompt.
func (s *ConversationService) Window(ctx context.Context, userID string) ([]types.ConversationEntry, error) {
	var since int64
	if s.windowMode == "time" {
		since = time.Now().Add(-s.windowMaxAge).UnixNano()
	}
	return s.repo.Window(ctx, userID, int64(s.windowEntries), since)
}

func (s *ConversationService) Paginate(ctx context.Context, userID string, page, limit int64) ([]types.ConversationEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return s.repo.Paginate(ctx, userID, (page-1)*limit, limit)
}

func (s *ConversationService) Stats(ctx context.Context, userID string) (*types.ConversationStats, error) {
	return s.repo.Stats(ctx, userID)
}

func (s *ConversationService) ListUserIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListUserIDs(ctx)
}

// MarkProcessed records a request id, returning false when the id was
// already seen. Callers skip the turn entirely for duplicates.
func (s *ConversationService) MarkProcessed(ctx context.Context, requestID string) (bool, error) {
	if requestID == "" {
		return true, nil
	}
	return s.repo.MarkProcessed(ctx, requestID)
}

// ClearProcessed drops the dedup set. Admin-only escape hatch.
func (s *ConversationService) ClearProcessed(ctx context.Context) error {
	return s.repo.ClearProcessed(ctx)
}
