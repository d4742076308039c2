package retry

import "time"

// EventType identifies the kind of event occurring during retry execution.
type EventType string

const (
	// EventAttemptStart fires before each attempt.
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptFailed fires after a failed attempt.
	EventAttemptFailed EventType = "attempt_failed"

	// EventRetrying fires before waiting out the backoff delay.
	EventRetrying EventType = "retrying"

	// EventSuccess fires when an attempt succeeds.
	EventSuccess EventType = "success"

	// EventExhausted fires when all attempts are spent or a non-retryable
	// error ends the sequence.
	EventExhausted EventType = "exhausted"
)

// Event represents an observable occurrence during retry execution.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Attempt is the current attempt number (1-indexed).
	Attempt int

	// MaxAttempts is the total number of attempts allowed.
	MaxAttempts int

	// Err contains the error from a failed attempt.
	Err error

	// Delay is the wait before the next attempt (for EventRetrying).
	Delay time.Duration

	// Retryable indicates whether the error was classified as retryable.
	Retryable bool

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - drop rather than block the retry loop.
	}
}
