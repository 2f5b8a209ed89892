package types

import (
	"errors"
	"fmt"
)

// ErrRebuildInProgress is returned by mutating index operations while a
// full rebuild holds the write gate. Callers may retry after the rebuild
// completes.
var ErrRebuildInProgress = errors.New("index rebuild in progress, retry later")

// ValidationError rejects bad input shape before it reaches the core.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ProviderError wraps an embedding/completion provider failure. Transient
// failures are retried with backoff before being surfaced.
type ProviderError struct {
	Provider  string
	Op        string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IntegrityError signals a mismatch between the document store and the
// vector index. It triggers auto-recovery and is never shown to end users
// as a chat failure.
type IntegrityError struct {
	Orphaned int
	Missing  int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("index integrity violation: %d orphaned, %d missing passages", e.Orphaned, e.Missing)
}

// NotFoundError reports an unknown document or user id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsRetryable reports whether the caller should retry the operation.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRebuildInProgress) {
		return true
	}
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient
}
