package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/repository"
	"github.com/careline/chatbot-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendTimestampsStrictlyMonotonic(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	var last int64
	for i := 0; i < 50; i++ {
		entry, err := stack.conversationService.Append(ctx, "u1", types.RoleUser, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		assert.Greater(t, entry.Timestamp, last)
		last = entry.Timestamp
	}
}

func TestAppendValidatesInput(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	_, err := stack.conversationService.Append(ctx, "", types.RoleUser, "hi")
	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = stack.conversationService.Append(ctx, "u1", "system", "hi")
	require.ErrorAs(t, err, &validationErr)
}

func TestWindowCountModeCapsAndOrders(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := stack.conversationService.Append(ctx, "u1", types.RoleUser, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	window, err := stack.conversationService.Window(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, window, 10)
	assert.Equal(t, "message 5", window[0].Text)
	assert.Equal(t, "message 14", window[9].Text)
	for i := 1; i < len(window); i++ {
		assert.Greater(t, window[i].Timestamp, window[i-1].Timestamp)
	}
}

func TestWindowTimeModeDropsOldEntries(t *testing.T) {
	repo := repository.NewMemoryConversationRepo()
	svc := NewConversationService(repo, config.ConversationConfig{
		WindowMode:    "time",
		WindowEntries: 10,
		WindowMaxAge:  time.Hour,
	})
	ctx := context.Background()

	// Entries older than the window, written straight to the repository.
	stale := time.Now().Add(-2 * time.Hour).UnixNano()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendEntry(ctx, &types.ConversationEntry{
			ID:        fmt.Sprintf("old-%d", i),
			UserID:    "u1",
			Role:      types.RoleUser,
			Text:      "old message",
			Timestamp: stale + int64(i),
		}))
	}
	_, err := svc.Append(ctx, "u1", types.RoleUser, "fresh message")
	require.NoError(t, err)

	window, err := svc.Window(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "fresh message", window[0].Text)

	// Lazy eviction: the stale entries stay stored.
	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalEntries)
}

func TestWindowIsolatedPerUser(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	_, err := stack.conversationService.Append(ctx, "alice", types.RoleUser, "alice says hi")
	require.NoError(t, err)
	_, err = stack.conversationService.Append(ctx, "bob", types.RoleUser, "bob says hi")
	require.NoError(t, err)

	window, err := stack.conversationService.Window(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "alice", window[0].UserID)
}

func TestPaginateWalksFullHistory(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := stack.conversationService.Append(ctx, "u1", types.RoleUser, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	page1, total, err := stack.conversationService.Paginate(ctx, "u1", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, page1, 5)
	assert.Equal(t, "message 0", page1[0].Text)

	page3, _, err := stack.conversationService.Paginate(ctx, "u1", 3, 5)
	require.NoError(t, err)
	require.Len(t, page3, 2)
	assert.Equal(t, "message 11", page3[1].Text)
}

func TestMarkProcessedDedup(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()

	fresh, err := stack.conversationService.MarkProcessed(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = stack.conversationService.MarkProcessed(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, fresh)

	// Empty request ids are never deduped.
	fresh, err = stack.conversationService.MarkProcessed(ctx, "")
	require.NoError(t, err)
	assert.True(t, fresh)

	require.NoError(t, stack.conversationService.ClearProcessed(ctx))
	fresh, err = stack.conversationService.MarkProcessed(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, fresh)
}
