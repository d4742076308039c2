package chain

import (
	"context"
	"errors"

	ai "github.com/spetersoncode/strand"
)

// dispatch derives the structured outcome of a finished run. Callers
// always receive a value; runtime failures surface only through the
// status, error kind, and suggestion fields.
//
// Status rule: every executed step accepted means success. A failed
// mandatory step, an interrupted run, or zero successes means failure.
// Anything in between is partial, with the last good output carried
// as the final result.
func dispatch(spec *Spec, run *Run) *Outcome {
	out := &Outcome{Run: run}

	var failures, successes int
	var firstFailure error
	for _, res := range run.Results {
		if res.Success {
			successes++
			continue
		}
		failures++
		if firstFailure == nil {
			firstFailure = res.Err
		}
	}

	switch {
	case run.Interrupted != nil:
		out.Status = StatusFailure
		out.ErrorKind = interruptKind(run.Interrupted)
	case failures == 0 && successes > 0:
		out.Status = StatusSuccess
		out.FinalOutput = run.FinalOutput
	case mandatoryFailed(spec, run):
		out.Status = StatusFailure
		err := mandatoryError(spec, run)
		if err == nil {
			err = firstFailure
		}
		out.ErrorKind = decisiveKind(err)
	case successes == 0:
		out.Status = StatusFailure
		out.ErrorKind = decisiveKind(firstFailure)
	default:
		out.Status = StatusPartial
		out.FinalOutput = run.FinalOutput
		out.ErrorKind = decisiveKind(firstFailure)
	}

	if out.Status != StatusSuccess {
		if run.Interrupted != nil && !errors.Is(run.Interrupted, context.DeadlineExceeded) {
			out.RecoverySuggestion = "the run was cancelled before completing; rerun it when ready"
		} else {
			out.RecoverySuggestion = suggestionFor(out.ErrorKind)
		}
	}
	run.Status = out.Status
	return out
}

// mandatoryFailed reports whether the run's mandatory step failed. For
// parallel chains that is the aggregation step; for linear and
// conditional chains it is the last step of the executed path, which
// covers both the terminal step and a sole step.
func mandatoryFailed(spec *Spec, run *Run) bool {
	if len(run.Results) == 0 {
		return true
	}
	if spec.Kind() == KindParallel {
		res, ok := run.Result(spec.Aggregate().Name)
		return !ok || !res.Success
	}
	return !run.Results[len(run.Results)-1].Success
}

// mandatoryError returns the mandatory step's error, if any.
func mandatoryError(spec *Spec, run *Run) error {
	if spec.Kind() == KindParallel {
		if res, ok := run.Result(spec.Aggregate().Name); ok {
			return res.Err
		}
		return nil
	}
	if len(run.Results) == 0 {
		return nil
	}
	return run.Results[len(run.Results)-1].Err
}

// interruptKind maps a context error to the public taxonomy: an
// elapsed deadline is a timeout, an explicit cancel is unknown.
func interruptKind(err error) ai.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ai.KindTimeout
	}
	return ai.KindUnknown
}

// decisiveKind classifies a step failure into the dispatch taxonomy.
// Transient network errors that survived the retry budget no longer
// point at an actionable transient condition, so they fold into
// unknown.
func decisiveKind(err error) ai.ErrorKind {
	switch kind := ai.KindOf(err); kind {
	case ai.KindTransientNetwork, "":
		return ai.KindUnknown
	default:
		return kind
	}
}

// suggestionFor returns an actionable hint for the error kind.
func suggestionFor(kind ai.ErrorKind) string {
	switch kind {
	case ai.KindTimeout:
		return "increase the step timeout or simplify the prompt, then retry"
	case ai.KindRateLimited:
		return "wait for the provider's rate limit window to reset before retrying"
	case ai.KindContentFiltered:
		return "rephrase the input to comply with the provider's content policy"
	case ai.KindValidationFailed:
		return "adjust the prompt or loosen the validation rule so the output conforms"
	default:
		return "inspect the run log; the failure did not match a retryable category"
	}
}
