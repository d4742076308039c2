// Package event provides the observability event stream for chain runs.
// Runners emit events to caller-supplied channels; sends never block, so a
// slow or absent consumer cannot stall execution. The lifecycle types map
// 1:1 onto the AG-UI protocol where an equivalent exists.
package event

import (
	"time"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStarted fires when a chain run begins.
	RunStarted Type = "run_started"

	// RunFinished fires when a run completes with status success or partial.
	RunFinished Type = "run_finished"

	// RunFailed fires when a run completes with status failure.
	RunFailed Type = "run_failed"
)

// Step lifecycle events
const (
	// StepStarted fires when a step begins executing.
	StepStarted Type = "step_started"

	// StepFinished fires when a step completes successfully.
	StepFinished Type = "step_finished"

	// StepFailed fires when a step fails permanently (retries and recovery
	// exhausted).
	StepFailed Type = "step_failed"
)

// Retry events, forwarded from the retry executor
const (
	// RetryAttempt fires before each provider attempt.
	RetryAttempt Type = "retry_attempt"

	// RetryBackoff fires before waiting out a backoff delay.
	RetryBackoff Type = "retry_backoff"

	// RetryExhausted fires when a step's attempts are spent.
	RetryExhausted Type = "retry_exhausted"
)

// Recovery events
const (
	// RecoveryStarted fires before the single recovery pass of a failed step.
	RecoveryStarted Type = "recovery_started"

	// RecoverySucceeded fires when the recovery output is accepted.
	RecoverySucceeded Type = "recovery_succeeded"

	// RecoveryFailed fires when recovery fails and the step is marked
	// permanently failed.
	RecoveryFailed Type = "recovery_failed"
)

// Routing and fan-out events
const (
	// BranchSelected fires when a conditional step chooses its next step.
	BranchSelected Type = "branch_selected"

	// FanOutStarted fires when parallel branches are dispatched.
	FanOutStarted Type = "fanout_started"

	// FanOutSettled fires when all parallel branches have settled.
	FanOutSettled Type = "fanout_settled"
)

// Cache events
const (
	// CacheHit fires when a run is served from the result cache.
	CacheHit Type = "cache_hit"

	// CacheStored fires when a successful run is written to the cache.
	CacheStored Type = "cache_stored"
)

// Event represents an observable occurrence during a chain run.
type Event struct {
	// Type identifies the kind of event.
	Type Type

	// RunID identifies the run the event belongs to.
	RunID string

	// Chain is the chain name.
	Chain string

	// Step identifies the step for step-scoped events.
	Step string

	// Branch is the chosen target for BranchSelected events.
	Branch string

	// Attempt is the 1-indexed attempt number for retry events.
	Attempt int

	// MaxAttempts is the attempt budget for retry events.
	MaxAttempts int

	// Delay is the backoff duration for RetryBackoff events.
	Delay time.Duration

	// Status is the final run status for RunFinished/RunFailed events.
	Status string

	// Message carries additional context: selection reasons for
	// BranchSelected, the final output for RunFinished, the error kind
	// for RunFailed.
	Message string

	// Err contains the error for failure events.
	Err error

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emit sends an event with timestamp to the channel (non-blocking). A nil
// channel is ignored.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
		// Channel full - don't block
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
