package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentEmergency, ParseIntent("emergency"))
	assert.Equal(t, IntentSales, ParseIntent("  Sales "))
	assert.Equal(t, IntentUnknown, ParseIntent("chitchat"))
	assert.Equal(t, IntentUnknown, ParseIntent(""))
}

func TestHigherPriority(t *testing.T) {
	assert.True(t, HigherPriority(IntentEmergency, IntentSchedule))
	assert.True(t, HigherPriority(IntentSchedule, IntentSales))
	assert.True(t, HigherPriority(IntentSales, IntentSupport))
	assert.True(t, HigherPriority(IntentSupport, IntentAvailability))
	assert.False(t, HigherPriority(IntentAvailability, IntentEmergency))
	assert.False(t, HigherPriority(IntentUnknown, IntentSupport))
	assert.True(t, HigherPriority(IntentSupport, IntentUnknown))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRebuildInProgress))
	assert.True(t, IsRetryable(&ProviderError{Provider: "openai", Op: "embed", Transient: true, Err: errors.New("429")}))
	assert.False(t, IsRetryable(&ProviderError{Provider: "openai", Op: "embed", Err: errors.New("bad key")}))
	assert.False(t, IsRetryable(errors.New("plain failure")))
	assert.False(t, IsRetryable(&ValidationError{Field: "content", Reason: "empty"}))
}
