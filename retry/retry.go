package retry

import (
	"context"
	"time"

	"github.com/spetersoncode/strand"
)

// effectiveDelay returns the backoff to use after a failure, honoring a
// server-supplied Retry-After when it exceeds the computed delay.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := strand.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

// Do executes fn with bounded retries and exponential backoff. Timeout,
// rate-limited, and transient network failures are retried; all other
// failures end the sequence immediately. It returns the result, the number
// of attempts consumed, and the final error (nil on success). Context
// cancellation is respected during backoff waits.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, int, error) {
	return DoWithEvents(ctx, cfg, nil, fn)
}

// DoWithEvents is Do with observability: retry lifecycle events are sent to
// the channel non-blocking (dropped when full). Pass nil to disable.
func DoWithEvents[T any](ctx context.Context, cfg Config, events chan<- Event, fn func() (T, error)) (T, int, error) {
	var zero T
	var lastErr error
	total := cfg.attempts()

	for attempt := 1; attempt <= total; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}

		emit(events, Event{Type: EventAttemptStart, Attempt: attempt, MaxAttempts: total})

		result, err := fn()
		if err == nil {
			emit(events, Event{Type: EventSuccess, Attempt: attempt, MaxAttempts: total})
			return result, attempt, nil
		}

		lastErr = err
		retryable := strand.Retryable(err)
		emit(events, Event{
			Type:        EventAttemptFailed,
			Attempt:     attempt,
			MaxAttempts: total,
			Err:         err,
			Retryable:   retryable,
		})

		if !retryable {
			emit(events, Event{Type: EventExhausted, Attempt: attempt, MaxAttempts: total, Err: err})
			return zero, attempt, err
		}

		if attempt < total {
			delay := effectiveDelay(cfg.Delay(attempt), err)
			emit(events, Event{
				Type:        EventRetrying,
				Attempt:     attempt,
				MaxAttempts: total,
				Delay:       delay,
				Err:         err,
			})

			select {
			case <-ctx.Done():
				return zero, attempt, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	emit(events, Event{Type: EventExhausted, Attempt: total, MaxAttempts: total, Err: lastErr})
	return zero, total, lastErr
}
