package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spetersoncode/strand/event"
)

// runParallel fans the chain input out to every step concurrently,
// waits for all branches to settle, then feeds the successful outputs
// to the aggregation step joined in declaration order. Completion
// timing never affects the aggregation input order.
func (r *Runner) runParallel(ctx context.Context, spec *Spec, run *Run, o *RunOptions) {
	steps := spec.Steps()
	results := make([]StepResult, len(steps))

	var wg sync.WaitGroup

	// Semaphore for concurrency limiting
	var sem chan struct{}
	if o.MaxConcurrency > 0 {
		sem = make(chan struct{}, o.MaxConcurrency)
	}

	event.Emit(o.Events, event.Event{Type: event.FanOutStarted, RunID: run.ID, Chain: run.Chain})

	for i, step := range steps {
		wg.Add(1)
		go func(i int, step StepSpec) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			results[i] = r.executeStep(ctx, step, run.Input, "", run, o)
		}(i, step)
	}
	wg.Wait()

	var succeeded []string
	for _, res := range results {
		run.record(res)
		if res.Success {
			succeeded = append(succeeded, res.Output)
		}
	}
	event.Emit(o.Events, event.Event{
		Type: event.FanOutSettled, RunID: run.ID, Chain: run.Chain,
		Message: fmt.Sprintf("%d/%d branches succeeded", len(succeeded), len(steps)),
	})

	if o.Strict && len(succeeded) < len(steps) {
		return
	}

	agg := spec.Aggregate()
	if err := ctx.Err(); err != nil {
		run.Interrupted = err
		run.logf("run interrupted before step %s: %v", agg.Name, err)
		return
	}

	res := r.executeStep(ctx, *agg, strings.Join(succeeded, "\n\n"), "", run, o)
	run.record(res)
	if res.Success {
		run.FinalOutput = res.Output
	}
}
