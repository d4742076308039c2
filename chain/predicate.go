package chain

import (
	"fmt"
	"strconv"
	"strings"
)

// PredicateKind identifies how a predicate inspects step output.
type PredicateKind string

const (
	// PredicateContains matches when the output contains a substring.
	PredicateContains PredicateKind = "contains"

	// PredicateEquals matches when the output equals a value exactly
	// after trimming surrounding whitespace.
	PredicateEquals PredicateKind = "equals"

	// PredicatePrefix matches when the output starts with a value.
	PredicatePrefix PredicateKind = "prefix"

	// PredicateLongerThan matches when the output length exceeds a
	// character count.
	PredicateLongerThan PredicateKind = "longer_than"

	// PredicateDefault always matches. A conditional step uses it as
	// its fallback branch.
	PredicateDefault PredicateKind = "default"
)

// Predicate is a serializable condition evaluated against a step's
// output to select a branch. Predicates carry their kind and operands
// as data so a chain spec can be hashed, logged, and inspected without
// executing opaque functions.
type Predicate struct {
	Kind  PredicateKind
	Value string
	N     int
}

// Contains returns a predicate that matches output containing s,
// case-insensitively.
func Contains(s string) Predicate {
	return Predicate{Kind: PredicateContains, Value: s}
}

// Equals returns a predicate that matches output equal to s after
// trimming whitespace, case-insensitively.
func Equals(s string) Predicate {
	return Predicate{Kind: PredicateEquals, Value: s}
}

// HasPrefix returns a predicate that matches output starting with s,
// case-insensitively, after trimming leading whitespace.
func HasPrefix(s string) Predicate {
	return Predicate{Kind: PredicatePrefix, Value: s}
}

// LongerThan returns a predicate that matches output longer than n
// characters after trimming whitespace.
func LongerThan(n int) Predicate {
	return Predicate{Kind: PredicateLongerThan, N: n}
}

// Otherwise returns the always-matching default predicate.
func Otherwise() Predicate {
	return Predicate{Kind: PredicateDefault}
}

// Matches reports whether the predicate accepts the given output.
func (p Predicate) Matches(output string) bool {
	switch p.Kind {
	case PredicateContains:
		return strings.Contains(strings.ToLower(output), strings.ToLower(p.Value))
	case PredicateEquals:
		return strings.EqualFold(strings.TrimSpace(output), strings.TrimSpace(p.Value))
	case PredicatePrefix:
		return strings.HasPrefix(strings.ToLower(strings.TrimLeft(output, " \t\r\n")), strings.ToLower(p.Value))
	case PredicateLongerThan:
		return len(strings.TrimSpace(output)) > p.N
	case PredicateDefault:
		return true
	default:
		return false
	}
}

// IsDefault reports whether this is the always-matching predicate.
func (p Predicate) IsDefault() bool { return p.Kind == PredicateDefault }

// String renders the predicate for spec hashing and event payloads.
func (p Predicate) String() string {
	switch p.Kind {
	case PredicateLongerThan:
		return string(p.Kind) + "(" + strconv.Itoa(p.N) + ")"
	case PredicateDefault:
		return string(p.Kind)
	default:
		return fmt.Sprintf("%s(%s)", p.Kind, p.Value)
	}
}
