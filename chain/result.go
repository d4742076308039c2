package chain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/strand"
)

// Status summarizes a chain run.
type Status string

const (
	// StatusSuccess means every executed step produced accepted output.
	StatusSuccess Status = "success"

	// StatusPartial means some steps failed but the chain still
	// produced a usable result.
	StatusPartial Status = "partial"

	// StatusFailure means the chain produced no usable result.
	StatusFailure Status = "failure"
)

// StepResult records one step's execution within a run.
type StepResult struct {
	Step      string
	Input     string
	Output    string
	Success   bool
	Err       error
	Attempts  int
	Recovered bool
	Duration  time.Duration
	Usage     ai.Usage
}

// Run is the full record of one chain execution.
type Run struct {
	ID          string
	Chain       string
	SpecHash    string
	Input       string
	Results     []StepResult
	Path        []string
	Status      Status
	FinalOutput string
	Usage       ai.Usage
	Log         []string
	Started     time.Time
	Duration    time.Duration

	// Interrupted holds the context error that stopped the run at a
	// step boundary, nil when the run ran to completion.
	Interrupted error

	mu sync.Mutex
}

// newRun allocates a run record with a fresh identifier.
func newRun(spec *Spec, input string) *Run {
	return &Run{
		ID:       uuid.New().String(),
		Chain:    spec.Name(),
		SpecHash: spec.Hash(),
		Input:    input,
		Started:  time.Now(),
	}
}

// Result looks up the recorded result for a step.
func (r *Run) Result(step string) (StepResult, bool) {
	for _, res := range r.Results {
		if res.Step == step {
			return res, true
		}
	}
	return StepResult{}, false
}

// record appends a step result to the execution trace and accumulates
// its token usage.
func (r *Run) record(res StepResult) {
	r.Results = append(r.Results, res)
	r.Path = append(r.Path, res.Step)
	r.Usage = r.Usage.Add(res.Usage)
}

// maxLogLines bounds the run log so a retry storm cannot grow the run
// record without limit.
const maxLogLines = 16

// logf appends a formatted line to the run log, evicting the oldest
// line once the bound is reached. Safe for concurrent fan-out steps.
func (r *Run) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Log) >= maxLogLines {
		r.Log = append(r.Log[1:], line)
		return
	}
	r.Log = append(r.Log, line)
}

// tailLog returns up to n of the most recent log lines.
func (r *Run) tailLog(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Log) <= n {
		return append([]string(nil), r.Log...)
	}
	return append([]string(nil), r.Log[len(r.Log)-n:]...)
}

// Outcome is the dispatcher's uniform view of a finished run, shaped
// for transport surfaces that need a verdict without walking the full
// run record.
type Outcome struct {
	// Status is the overall verdict.
	Status Status

	// FinalOutput is the chain's product. On partial runs it is the
	// best available result; on failures it is empty.
	FinalOutput string

	// ErrorKind classifies the decisive failure for partial and failed
	// runs. Empty on success.
	ErrorKind ai.ErrorKind

	// RecoverySuggestion is an actionable hint matching ErrorKind.
	RecoverySuggestion string

	// Run is the underlying run record.
	Run *Run

	// CacheHit reports whether the outcome was served from the run
	// cache rather than executed.
	CacheHit bool
}
