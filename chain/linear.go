package chain

import "context"

// runLinear executes steps in declaration order. Each successful step
// replaces the carried output; a failed step leaves it unchanged so
// the next step reuses the last good value. Strict mode stops at the
// first failure.
func (r *Runner) runLinear(ctx context.Context, spec *Spec, run *Run, o *RunOptions) {
	carried := run.Input
	var transcript []string

	for _, step := range spec.Steps() {
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
	}
}
