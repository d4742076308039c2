package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the topology of a chain.
type Kind string

const (
	// KindLinear runs steps in declaration order, each consuming the
	// previous step's output.
	KindLinear Kind = "linear"

	// KindConditional routes between steps by evaluating branch
	// predicates against each step's output.
	KindConditional Kind = "conditional"

	// KindParallel fans the input out to every step concurrently and
	// aggregates the results.
	KindParallel Kind = "parallel"
)

// Branch routes a conditional step's output to a next step. An empty
// To ends the chain after the owning step.
type Branch struct {
	When Predicate
	To   string
}

// StepSpec describes one prompt step of a chain.
type StepSpec struct {
	// Name identifies the step within its chain. Required, unique.
	Name string

	// Description is surfaced to the recovery prompt and tool listings.
	Description string

	// Template is the prompt template. {{.input}} carries the prior
	// step's output (or the chain input for the first step).
	Template string

	// MaxAttempts overrides the runner's retry budget for this step.
	// Zero means use the runner default.
	MaxAttempts int

	// Timeout overrides the runner's per-step budget. Zero means use
	// the runner default.
	Timeout time.Duration

	// Validate rejects unacceptable output. A non-nil error marks the
	// attempt failed and triggers the recovery pass.
	Validate func(output string) error

	// Branches route on this step's output. Only valid in conditional
	// chains; the last branch must be the default.
	Branches []Branch
}

// Spec is an immutable, validated chain description. Construct one
// with NewLinear, NewConditional, or NewParallel.
type Spec struct {
	name          string
	description   string
	kind          Kind
	steps         []StepSpec
	index         map[string]int
	aggregate     *StepSpec
	deterministic bool
	hash          string
}

// SpecOption configures optional spec attributes.
type SpecOption func(*Spec)

// WithDescription sets a human-readable chain description.
func WithDescription(desc string) SpecOption {
	return func(s *Spec) { s.description = desc }
}

// Deterministic marks the chain as producing stable output for a given
// input, making successful runs eligible for caching.
func Deterministic() SpecOption {
	return func(s *Spec) { s.deterministic = true }
}

// NewLinear builds a linear chain. Steps run in declaration order.
func NewLinear(name string, steps []StepSpec, opts ...SpecOption) (*Spec, error) {
	s := newSpec(name, KindLinear, steps, opts...)
	if err := s.validateSteps(); err != nil {
		return nil, err
	}
	for _, step := range s.steps {
		if len(step.Branches) > 0 {
			return nil, &ConstructionError{Chain: name, Step: step.Name, Err: ErrInvalidBranch}
		}
	}
	s.hash = s.computeHash()
	return s, nil
}

// NewConditional builds a conditional chain. The first step is the
// entry; each step's branches are evaluated in declaration order and
// the first matching predicate selects the next step. A step without
// branches ends the chain.
func NewConditional(name string, steps []StepSpec, opts ...SpecOption) (*Spec, error) {
	s := newSpec(name, KindConditional, steps, opts...)
	if err := s.validateSteps(); err != nil {
		return nil, err
	}
	if err := s.validateBranches(); err != nil {
		return nil, err
	}
	if err := s.validateAcyclic(); err != nil {
		return nil, err
	}
	s.hash = s.computeHash()
	return s, nil
}

// NewParallel builds a fan-out chain. Every step receives the chain
// input concurrently; aggregate consumes the successful outputs joined
// in declaration order.
func NewParallel(name string, steps []StepSpec, aggregate StepSpec, opts ...SpecOption) (*Spec, error) {
	s := newSpec(name, KindParallel, steps, opts...)
	s.aggregate = &aggregate
	if err := s.validateSteps(); err != nil {
		return nil, err
	}
	for _, step := range s.steps {
		if len(step.Branches) > 0 {
			return nil, &ConstructionError{Chain: name, Step: step.Name, Err: ErrInvalidBranch}
		}
	}
	if aggregate.Name == "" || aggregate.Template == "" {
		return nil, &ConstructionError{Chain: name, Step: aggregate.Name, Err: ErrEmptyTemplate}
	}
	if len(aggregate.Branches) > 0 {
		return nil, &ConstructionError{Chain: name, Step: aggregate.Name, Err: ErrInvalidBranch}
	}
	if _, exists := s.index[aggregate.Name]; exists {
		return nil, &ConstructionError{Chain: name, Step: aggregate.Name, Err: ErrDuplicateStepName}
	}
	s.hash = s.computeHash()
	return s, nil
}

func newSpec(name string, kind Kind, steps []StepSpec, opts ...SpecOption) *Spec {
	s := &Spec{
		name:  name,
		kind:  kind,
		steps: make([]StepSpec, len(steps)),
		index: make(map[string]int, len(steps)),
	}
	copy(s.steps, steps)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Spec) validateSteps() error {
	if len(s.steps) == 0 {
		return &ConstructionError{Chain: s.name, Err: ErrNoSteps}
	}
	for i, step := range s.steps {
		if step.Name == "" || step.Template == "" {
			return &ConstructionError{Chain: s.name, Step: step.Name, Err: ErrEmptyTemplate}
		}
		if _, dup := s.index[step.Name]; dup {
			return &ConstructionError{Chain: s.name, Step: step.Name, Err: ErrDuplicateStepName}
		}
		s.index[step.Name] = i
	}
	return nil
}

func (s *Spec) validateBranches() error {
	for _, step := range s.steps {
		if len(step.Branches) == 0 {
			continue
		}
		sawDefault := false
		for _, b := range step.Branches {
			if sawDefault {
				return &ConstructionError{Chain: s.name, Step: step.Name, Err: ErrMisplacedDefault}
			}
			if b.When.IsDefault() {
				sawDefault = true
			}
			if b.To == "" {
				continue
			}
			if _, ok := s.index[b.To]; !ok {
				return &ConstructionError{Chain: s.name, Step: step.Name, Err: ErrUnknownStep}
			}
		}
		if !sawDefault {
			return &ConstructionError{Chain: s.name, Step: step.Name, Err: ErrMissingDefaultBranch}
		}
	}
	return nil
}

// validateAcyclic rejects any branch graph where a step can reach
// itself. Colors: 0 unvisited, 1 on the current path, 2 done.
func (s *Spec) validateAcyclic() error {
	colors := make([]int, len(s.steps))
	var visit func(i int) error
	visit = func(i int) error {
		colors[i] = 1
		for _, b := range s.steps[i].Branches {
			if b.To == "" {
				continue
			}
			j := s.index[b.To]
			switch colors[j] {
			case 1:
				return &ConstructionError{Chain: s.name, Step: s.steps[i].Name, Err: ErrCyclicChain}
			case 0:
				if err := visit(j); err != nil {
					return err
				}
			}
		}
		colors[i] = 2
		return nil
	}
	for i := range s.steps {
		if colors[i] == 0 {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// computeHash produces a stable digest of the chain structure. Two
// specs with the same topology, templates, and budgets share a hash,
// which keys the run cache.
func (s *Spec) computeHash() string {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write("chain", s.name, string(s.kind), strconv.FormatBool(s.deterministic))
	hashStep := func(step StepSpec) {
		write("step", step.Name,
			strconv.Itoa(len(step.Template)), step.Template,
			strconv.Itoa(step.MaxAttempts),
			step.Timeout.String(),
			strconv.FormatBool(step.Validate != nil))
		for _, b := range step.Branches {
			write("branch", b.When.String(), b.To)
		}
	}
	for _, step := range s.steps {
		hashStep(step)
	}
	if s.aggregate != nil {
		write("aggregate")
		hashStep(*s.aggregate)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Name returns the chain name.
func (s *Spec) Name() string { return s.name }

// Description returns the chain description, or a generated one.
func (s *Spec) Description() string {
	if s.description != "" {
		return s.description
	}
	return fmt.Sprintf("%s chain with %d step(s)", s.kind, len(s.steps))
}

// Kind returns the chain topology.
func (s *Spec) Kind() Kind { return s.kind }

// Len returns the number of steps, excluding any aggregation step.
func (s *Spec) Len() int { return len(s.steps) }

// Steps returns a copy of the step list in declaration order.
func (s *Spec) Steps() []StepSpec {
	out := make([]StepSpec, len(s.steps))
	copy(out, s.steps)
	return out
}

// Step looks up a step by name.
func (s *Spec) Step(name string) (StepSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return StepSpec{}, false
	}
	return s.steps[i], true
}

// Entry returns the first declared step.
func (s *Spec) Entry() StepSpec { return s.steps[0] }

// Aggregate returns the aggregation step of a parallel chain, or nil.
func (s *Spec) Aggregate() *StepSpec {
	if s.aggregate == nil {
		return nil
	}
	agg := *s.aggregate
	return &agg
}

// Deterministic reports whether successful runs may be cached.
func (s *Spec) Deterministic() bool { return s.deterministic }

// Hash returns the structural digest of the chain.
func (s *Spec) Hash() string { return s.hash }
