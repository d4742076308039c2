package chain

import (
	"errors"
	"fmt"
)

// Construction errors returned by the spec constructors.
var (
	// ErrNoSteps indicates an empty step list.
	ErrNoSteps = errors.New("chain: at least one step is required")

	// ErrDuplicateStepName indicates two steps share a name.
	ErrDuplicateStepName = errors.New("chain: duplicate step name")

	// ErrCyclicChain indicates the branch graph can revisit a step.
	ErrCyclicChain = errors.New("chain: cyclic step graph")

	// ErrMissingDefaultBranch indicates a conditional step has no
	// always-matching branch.
	ErrMissingDefaultBranch = errors.New("chain: conditional step has no default branch")

	// ErrUnknownStep indicates a branch targets a step that does not
	// exist in the chain.
	ErrUnknownStep = errors.New("chain: branch targets unknown step")

	// ErrMisplacedDefault indicates a default branch appears before a
	// conditional branch, making the later branches unreachable.
	ErrMisplacedDefault = errors.New("chain: default branch must be last")

	// ErrInvalidBranch indicates a branch on a step whose chain kind
	// does not route on output.
	ErrInvalidBranch = errors.New("chain: branches are only valid on conditional steps")

	// ErrEmptyTemplate indicates a step with no prompt template.
	ErrEmptyTemplate = errors.New("chain: step template is required")
)

// Registry errors.
var (
	// ErrNotFound indicates a registry lookup for an unregistered chain.
	ErrNotFound = errors.New("chain: not found")

	// ErrAlreadyRegistered indicates a name collision in the registry.
	ErrAlreadyRegistered = errors.New("chain: already registered")
)

// ConstructionError reports an invalid chain spec. It wraps one of the
// construction sentinels so callers can test the cause with errors.Is.
type ConstructionError struct {
	Chain string
	Step  string
	Err   error
}

// Error returns the construction error message.
func (e *ConstructionError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("chain %q: step %q: %v", e.Chain, e.Step, e.Err)
	}
	return fmt.Sprintf("chain %q: %v", e.Chain, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// StepError wraps a step failure with the step's name.
type StepError struct {
	Step string
	Err  error
}

// Error returns the step error message.
func (e *StepError) Error() string {
	return fmt.Sprintf("chain: step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}
