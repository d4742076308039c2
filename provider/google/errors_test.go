package google

import (
	"context"
	"errors"
	"fmt"
	"testing"

	ai "github.com/spetersoncode/strand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// --- wrapError ---

func TestWrapError_Nil(t *testing.T) {
	assert.NoError(t, wrapError(nil))
}

func TestWrapError_RateLimited(t *testing.T) {
	src := genai.APIError{Code: 429, Message: "quota exceeded", Status: "RESOURCE_EXHAUSTED"}
	wrapped := wrapError(src)

	var pe *ai.ProviderError
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, ai.KindRateLimited, pe.Kind)
	assert.Equal(t, 429, pe.Code)
	// The SDK hides headers, so there is no server-suggested delay.
	assert.Zero(t, pe.RetryAfter)
}

func TestWrapError_ServerErrorIsTransient(t *testing.T) {
	src := genai.APIError{Code: 503, Message: "service unavailable", Status: "UNAVAILABLE"}
	wrapped := wrapError(src)

	assert.Equal(t, ai.KindTransientNetwork, ai.KindOf(wrapped))
	assert.True(t, ai.Retryable(wrapped))
}

func TestWrapError_DeadlineStatusIsTimeout(t *testing.T) {
	src := genai.APIError{Code: 504, Message: "deadline exceeded", Status: "DEADLINE_EXCEEDED"}
	assert.Equal(t, ai.KindTimeout, ai.KindOf(wrapError(src)))
}

func TestWrapError_InvalidArgumentIsUnknown(t *testing.T) {
	src := genai.APIError{Code: 400, Message: "invalid argument", Status: "INVALID_ARGUMENT"}
	wrapped := wrapError(src)

	var pe *ai.ProviderError
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, ai.KindUnknown, pe.Kind)
	assert.Equal(t, 400, pe.Code)
	assert.False(t, pe.Retryable())
}

func TestWrapError_WrappedAPIErrorStillDetected(t *testing.T) {
	src := fmt.Errorf("generate content: %w", genai.APIError{Code: 500, Message: "internal"})
	assert.Equal(t, ai.KindTransientNetwork, ai.KindOf(wrapError(src)))
}

func TestWrapError_NonAPIErrorPassesThrough(t *testing.T) {
	src := errors.New("lookup generativelanguage.googleapis.com: no such host")
	assert.Equal(t, src, wrapError(src))
}

// --- client construction ---

func TestNew_Defaults(t *testing.T) {
	c, err := New(context.Background(), "test-key")
	require.NoError(t, err)
	require.NotNil(t, c.client)
	assert.Equal(t, DefaultModel, c.model)
}

func TestNew_WithModel(t *testing.T) {
	c, err := New(context.Background(), "test-key", WithModel("gemini-2.5-pro"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", c.model)
}
