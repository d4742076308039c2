// Package retry executes fallible operations with bounded attempts and
// exponential backoff. Attempts are strictly sequential; backoff waits are
// timer-based suspension points that respect context cancellation.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds retry parameters.
type Config struct {
	// MaxAttempts is the total number of attempts; the initial request
	// counts as attempt 1. Values below 1 mean a single attempt.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry (default: 1s).
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries (default: 30s).
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier (default: 2.0).
	Multiplier float64

	// Jitter widens each delay by a random factor in [-jitter, +jitter].
	// Zero keeps backoff deterministic.
	Jitter float64
}

// DefaultConfig returns the default retry configuration:
//   - 3 total attempts
//   - 1 second initial delay
//   - 30 second max delay
//   - 2x exponential multiplier
//   - no jitter
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Disabled returns a configuration that disables retries (single attempt).
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// WithAttempts returns a copy of the config with MaxAttempts replaced.
func (c Config) WithAttempts(n int) Config {
	c.MaxAttempts = n
	return c
}

// attempts returns the normalized total attempt count.
func (c Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// Delay returns the backoff before the retry that follows the given
// 1-indexed failed attempt: min(MaxDelay, InitialDelay * Multiplier^(attempt-1)),
// widened by Jitter when configured.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	multiplier := c.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	delay := float64(c.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}
