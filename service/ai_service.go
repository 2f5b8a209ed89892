package service

import (
	"context"
	"errors"
	"time"

	"github.com/careline/chatbot-be/types"
)

// EmbeddingProvider turns text into a fixed-length vector. Implementations
// may fail with rate-limit or transient errors; callers wrap calls in
// retryWithBackoff.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionProvider produces a chat completion for a system prompt plus
// message history.
type CompletionProvider interface {
	Complete(ctx context.Context, system string, messages []types.Message) (string, error)
}

// retryWithBackoff runs fn up to attempts times with exponential backoff,
// giving up early when the context is done.
func retryWithBackoff(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !types.IsRetryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return err
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// EmbedderWithTimeout bounds every Embed call with its own deadline so a
// hung provider cannot stall the caller. A non-positive timeout returns
// the provider unwrapped.
func EmbedderWithTimeout(inner EmbeddingProvider, timeout time.Duration) EmbeddingProvider {
	if timeout <= 0 {
		return inner
	}
	return &timeoutEmbedder{inner: inner, timeout: timeout}
}

type timeoutEmbedder struct {
	inner   EmbeddingProvider
	timeout time.Duration
}

func (p *timeoutEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.Embed(ctx, text)
}

// CompletionWithTimeout is the completion-side counterpart of
// EmbedderWithTimeout.
func CompletionWithTimeout(inner CompletionProvider, timeout time.Duration) CompletionProvider {
	if timeout <= 0 {
		return inner
	}
	return &timeoutCompletion{inner: inner, timeout: timeout}
}

type timeoutCompletion struct {
	inner   CompletionProvider
	timeout time.Duration
}

func (p *timeoutCompletion) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.Complete(ctx, system, messages)
}
