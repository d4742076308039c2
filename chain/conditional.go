package chain

import (
	"context"

	"github.com/spetersoncode/strand/event"
)

// runConditional walks the branch graph from the entry step. After
// each step, branch predicates are evaluated against the step's output
// in declaration order and the first match selects the next step. A
// failed step routes through the default branch with the carried
// output unchanged. Steps without branches end the chain.
func (r *Runner) runConditional(ctx context.Context, spec *Spec, run *Run, o *RunOptions) {
	carried := run.Input
	var transcript []string
	step := spec.Entry()

	for {
		if err := ctx.Err(); err != nil {
			run.Interrupted = err
			run.logf("run interrupted before step %s: %v", step.Name, err)
			return
		}

		res := r.executeStep(ctx, step, carried, tailExcerpt(transcript, o.ContextCarry), run, o)
		run.record(res)

		if res.Success {
			carried = res.Output
			transcript = append(transcript, res.Output)
			run.FinalOutput = res.Output
		} else if o.Strict {
			return
		}

		if len(step.Branches) == 0 {
			return
		}

		branch := selectBranch(step.Branches, res)
		event.Emit(o.Events, event.Event{
			Type: event.BranchSelected, RunID: run.ID, Chain: run.Chain,
			Step: step.Name, Branch: branch.To, Message: branch.When.String(),
		})
		if branch.To == "" {
			return
		}
		step, _ = spec.Step(branch.To)
	}
}

// selectBranch picks the first branch whose predicate matches the step
// output. Failed steps take the default branch, which construction
// guarantees exists and sits last.
func selectBranch(branches []Branch, res StepResult) Branch {
	if res.Success {
		for _, b := range branches {
			if b.When.Matches(res.Output) {
				return b
			}
		}
	}
	return branches[len(branches)-1]
}
