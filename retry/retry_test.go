package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/strand"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSuccessFirstAttempt(t *testing.T) {
	calls := 0

	result, attempts, err := Do(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		return "done", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryableKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"timeout", strand.NewTimeoutError("slow", nil)},
		{"transient network", strand.NewTransientNetworkError("reset", 502, nil)},
		{"rate limited", strand.NewRateLimitError("429", 429, 0, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result, attempts, err := Do(context.Background(), fastConfig(3), func() (string, error) {
				calls++
				if calls < 3 {
					return "", tt.err
				}
				return "recovered", nil
			})

			assert.NoError(t, err)
			assert.Equal(t, "recovered", result)
			assert.Equal(t, 3, attempts)
		})
	}
}

func TestDoFailsFastOnNonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"content filtered", strand.NewContentFilteredError("refused", nil)},
		{"unknown", strand.NewUnknownError("bad key", 401, nil)},
		{"plain error", errors.New("invalid request body")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, attempts, err := Do(context.Background(), fastConfig(5), func() (string, error) {
				calls++
				return "", tt.err
			})

			assert.Equal(t, tt.err, err)
			assert.Equal(t, 1, attempts)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestDoExhaustionReturnsLastErrorAndAttempts(t *testing.T) {
	calls := 0
	_, attempts, err := Do(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		return "", strand.NewTransientNetworkError("reset", 502, nil)
	})

	require.Error(t, err)
	assert.Equal(t, strand.KindTransientNetwork, strand.KindOf(err))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestDoSingleAttemptConfigs(t *testing.T) {
	for _, attempts := range []int{0, 1, -1} {
		calls := 0
		start := time.Now()

		_, used, err := Do(context.Background(), Config{MaxAttempts: attempts}, func() (string, error) {
			calls++
			return "", strand.NewTimeoutError("slow", nil)
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls, "MaxAttempts=%d", attempts)
		assert.Equal(t, 1, used)
		assert.Less(t, time.Since(start), 100*time.Millisecond, "no backoff for a single attempt")
	}
}

func TestDoHonorsServerRetryAfter(t *testing.T) {
	cfg := fastConfig(2)
	serverDelay := 30 * time.Millisecond

	calls := 0
	start := time.Now()
	_, _, err := Do(context.Background(), cfg, func() (string, error) {
		calls++
		if calls == 1 {
			return "", strand.NewRateLimitError("slow down", 429, serverDelay, nil)
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), serverDelay)
}

func TestDoCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Minute, MaxDelay: time.Minute, Multiplier: 2.0}

	calls := 0
	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, _, err = Do(ctx, cfg, func() (string, error) {
			calls++
			return "", strand.NewTimeoutError("slow", nil)
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, attempts, err := Do(ctx, fastConfig(3), func() (string, error) {
		calls++
		return "ok", nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, attempts)
	assert.Zero(t, calls)
}

func TestDoWithEventsSequence(t *testing.T) {
	events := make(chan Event, 32)

	calls := 0
	_, _, err := DoWithEvents(context.Background(), fastConfig(2), events, func() (string, error) {
		calls++
		if calls == 1 {
			return "", strand.NewTimeoutError("slow", nil)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	close(events)

	var types []EventType
	for e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{
		EventAttemptStart,
		EventAttemptFailed,
		EventRetrying,
		EventAttemptStart,
		EventSuccess,
	}, types)
}

func TestDoWithEventsExhaustion(t *testing.T) {
	events := make(chan Event, 32)

	_, _, err := DoWithEvents(context.Background(), fastConfig(2), events, func() (string, error) {
		return "", strand.NewTransientNetworkError("reset", 502, nil)
	})
	require.Error(t, err)
	close(events)

	var last Event
	for e := range events {
		last = e
	}
	assert.Equal(t, EventExhausted, last.Type)
	assert.Equal(t, 2, last.Attempt)
	assert.Equal(t, 2, last.MaxAttempts)
	assert.Error(t, last.Err)
}

func TestDoWithEventsNilChannel(t *testing.T) {
	result, _, err := DoWithEvents(context.Background(), fastConfig(1), nil, func() (string, error) {
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestEmitDropsWhenFull(t *testing.T) {
	ch := make(chan Event, 1)
	emit(ch, Event{Type: EventAttemptStart})
	emit(ch, Event{Type: EventSuccess}) // full - must not block

	e := <-ch
	assert.Equal(t, EventAttemptStart, e.Type)
	assert.False(t, e.Timestamp.IsZero())
}
