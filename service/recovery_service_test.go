package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(stack *testStack) *RecoveryMonitor {
	return NewRecoveryMonitor(stack.indexService, config.MonitorConfig{
		CheckInterval:     time.Second,
		RebuildMaxRetries: 2,
	})
}

func TestMonitorHealthyOnConsistentIndex(t *testing.T) {
	stack := newTestStack()
	monitor := newTestMonitor(stack)

	_, err := stack.addDocument(context.Background(), "Everything is fine here.", types.Metadata{})
	require.NoError(t, err)

	monitor.RunCheck()

	status := monitor.Status()
	assert.Equal(t, types.IndexHealthy, status.State)
	assert.NotZero(t, status.LastCheckAt)
	assert.Empty(t, status.LastError)
}

func TestMonitorCleansOrphans(t *testing.T) {
	stack := newTestStack()
	monitor := newTestMonitor(stack)
	ctx := context.Background()

	_, err := stack.addDocument(ctx, "A real document.", types.Metadata{})
	require.NoError(t, err)
	stack.memIndex.Inject(types.Passage{
		ID:         "ghost:0",
		DocumentID: "ghost",
		Text:       "orphaned passage",
		Embedding:  embedText("orphan"),
	})

	monitor.RunCheck()

	report, err := stack.indexService.IntegrityCheck(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.OrphanedPassageIDs)
	assert.Equal(t, types.IndexHealthy, monitor.Status().State)
	assert.Equal(t, int64(1), monitor.Status().OrphansDeleted)
}

func TestMonitorRebuildsOnMissingPassages(t *testing.T) {
	stack := newTestStack()
	monitor := newTestMonitor(stack)
	ctx := context.Background()

	var docs []*types.Document
	for _, content := range []string{
		"A cat sat on a mat.",
		"Whitening takes 60 minutes.",
		"Opening hours are Monday to Friday.",
	} {
		doc, err := stack.addDocument(ctx, content, types.Metadata{})
		require.NoError(t, err)
		docs = append(docs, doc)
	}

	stack.memIndex.Corrupt(docs[0].ChunkIDs[0])

	// Degraded but still serving: the untouched documents remain
	// searchable before recovery runs.
	hits, err := stack.retrievalService.Retrieve(ctx, "whitening minutes", 3, -1, types.SearchFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	monitor.RunCheck()

	report, err := stack.indexService.IntegrityCheck(ctx)
	require.NoError(t, err)
	assert.False(t, report.Corrupt)
	assert.Empty(t, report.MissingPassageIDs)

	status := monitor.Status()
	assert.Equal(t, types.IndexHealthy, status.State)
	assert.NotZero(t, status.LastRebuildAt)

	// The corrupted document is searchable again.
	hits, err = stack.retrievalService.Retrieve(ctx, "where did the cat sit", 3, -1, types.SearchFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Passage.Text, "cat")
}

func TestMonitorReportsIntegrityViolationWhileRebuilding(t *testing.T) {
	stack := newTestStack()
	monitor := newTestMonitor(stack)
	ctx := context.Background()

	doc, err := stack.addDocument(ctx, "Passage that will go missing.", types.Metadata{})
	require.NoError(t, err)
	stack.memIndex.Corrupt(doc.ChunkIDs[0])

	block := make(chan struct{})
	stack.embedder.mu.Lock()
	stack.embedder.block = block
	stack.embedder.mu.Unlock()

	done := make(chan struct{})
	go func() {
		monitor.RunCheck()
		close(done)
	}()

	// While the rebuild stages, the status carries the detected violation.
	require.Eventually(t, func() bool {
		status := monitor.Status()
		return status.State == types.IndexDegraded &&
			strings.Contains(status.LastError, "integrity violation")
	}, 2*time.Second, 10*time.Millisecond)

	stack.embedder.mu.Lock()
	stack.embedder.block = nil
	stack.embedder.mu.Unlock()
	close(block)
	<-done

	status := monitor.Status()
	assert.Equal(t, types.IndexHealthy, status.State)
	assert.Empty(t, status.LastError)
}

func TestMonitorFailsAfterRetryExhaustionAndRecovers(t *testing.T) {
	stack := newTestStack()
	monitor := newTestMonitor(stack)
	ctx := context.Background()

	doc, err := stack.addDocument(ctx, "Document that will need a rebuild.", types.Metadata{})
	require.NoError(t, err)
	stack.memIndex.Corrupt(doc.ChunkIDs[0])
	stack.embedder.failAlways()

	monitor.RunCheck()

	status := monitor.Status()
	assert.Equal(t, types.IndexFailed, status.State)
	assert.Equal(t, 2, status.RebuildAttempts)
	assert.NotEmpty(t, status.LastError)

	// The loop survives a failed iteration: once the provider is back the
	// next sweep repairs the index and clears the failure.
	stack.embedder.recover()
	monitor.RunCheck()

	status = monitor.Status()
	assert.Equal(t, types.IndexHealthy, status.State)
	assert.Empty(t, status.LastError)

	report, err := stack.indexService.IntegrityCheck(ctx)
	require.NoError(t, err)
	assert.False(t, report.Corrupt)
}

func TestMonitorManualRebuild(t *testing.T) {
	stack := newTestStack()
	monitor := newTestMonitor(stack)
	ctx := context.Background()

	_, err := stack.addDocument(ctx, "Manual rebuild target.", types.Metadata{})
	require.NoError(t, err)

	require.NoError(t, monitor.Rebuild(ctx))
	status := monitor.Status()
	assert.Equal(t, types.IndexHealthy, status.State)
	assert.Equal(t, 1, status.RebuildAttempts)
	assert.NotZero(t, status.LastRebuildAt)
}
