package strand

import (
	"fmt"
	"time"
)

// ErrorKind classifies a failure by how the engine should handle it.
type ErrorKind string

const (
	// KindTimeout indicates a provider call exceeded its time budget.
	// Retryable.
	KindTimeout ErrorKind = "timeout"

	// KindRateLimited indicates the provider rejected the call due to rate
	// limiting. Retryable, honoring any server-suggested delay.
	KindRateLimited ErrorKind = "rate_limited"

	// KindContentFiltered indicates the provider or a policy filter refused
	// the content. Not retryable; the same input produces the same refusal.
	KindContentFiltered ErrorKind = "content_filtered"

	// KindTransientNetwork indicates a temporary transport failure.
	// Examples: connection reset, DNS failure, 5xx server errors. Retryable.
	KindTransientNetwork ErrorKind = "transient_network"

	// KindValidationFailed indicates a step's validation predicate rejected
	// an otherwise successful completion. Not retryable.
	KindValidationFailed ErrorKind = "validation_failed"

	// KindUnknown is the fallback for failures that match no other kind.
	// Not retryable.
	KindUnknown ErrorKind = "unknown"
)

// String returns the kind identifier.
func (k ErrorKind) String() string { return string(k) }

// Retryable reports whether failures of this kind may be retried.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindTransientNetwork:
		return true
	}
	return false
}

// ProviderError is a classified failure from a completion provider.
type ProviderError struct {
	Kind       ErrorKind
	Message    string
	Code       int           // HTTP status code, 0 if not applicable
	RetryAfter time.Duration // server-suggested retry delay, 0 if not available
	Cause      error         // underlying error
}

// Error returns the error message.
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the error may be retried.
func (e *ProviderError) Retryable() bool {
	return e.Kind.Retryable()
}

// NewTimeoutError creates a ProviderError for an exceeded time budget.
func NewTimeoutError(msg string, cause error) *ProviderError {
	return &ProviderError{Kind: KindTimeout, Message: msg, Cause: cause}
}

// NewRateLimitError creates a ProviderError for a rate-limited call. The
// retryAfter delay comes from the server and may be zero.
func NewRateLimitError(msg string, statusCode int, retryAfter time.Duration, cause error) *ProviderError {
	return &ProviderError{
		Kind:       KindRateLimited,
		Message:    msg,
		Code:       statusCode,
		RetryAfter: retryAfter,
		Cause:      cause,
	}
}

// NewContentFilteredError creates a ProviderError for refused content.
func NewContentFilteredError(msg string, cause error) *ProviderError {
	return &ProviderError{Kind: KindContentFiltered, Message: msg, Cause: cause}
}

// NewTransientNetworkError creates a ProviderError for a temporary transport
// failure.
func NewTransientNetworkError(msg string, statusCode int, cause error) *ProviderError {
	return &ProviderError{Kind: KindTransientNetwork, Message: msg, Code: statusCode, Cause: cause}
}

// NewUnknownError creates a ProviderError for an unclassified failure.
func NewUnknownError(msg string, statusCode int, cause error) *ProviderError {
	return &ProviderError{Kind: KindUnknown, Message: msg, Code: statusCode, Cause: cause}
}

// ValidationError indicates a step's validation predicate rejected a
// completion. It is distinct from ProviderError: the provider call itself
// succeeded.
type ValidationError struct {
	Step   string
	Reason error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %q output rejected: %v", e.Step, e.Reason)
}

// Unwrap returns the rejection reason.
func (e *ValidationError) Unwrap() error {
	return e.Reason
}
