package chain

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	ai "github.com/spetersoncode/strand"
	"github.com/spetersoncode/strand/cache"
	"github.com/spetersoncode/strand/event"
	"github.com/spetersoncode/strand/render"
	"github.com/spetersoncode/strand/retry"
)

// TemplateRenderer renders a prompt template against a variable map.
// render.Renderer satisfies it.
type TemplateRenderer interface {
	Render(tmpl string, vars map[string]any) (string, error)
}

// defaultStepTimeout bounds a single provider attempt when neither the
// step nor the runner specifies a budget.
const defaultStepTimeout = 60 * time.Second

// defaultRecoveryTemplate is the prompt for the single recovery pass
// after a step exhausts its retries or fails validation.
const defaultRecoveryTemplate = `A step in an automated pipeline failed and is being retried once with extra care.

Step purpose: {{.description}}

Recent run log:
{{.log}}

Original input:
{{.input}}

Complete the step's task on the original input. Respond with the result only, no commentary.`

// Runner executes chain specs against a completion provider.
// A Runner is safe for concurrent use; per-run state lives in the Run
// record.
type Runner struct {
	provider     ai.CompletionProvider
	renderer     TemplateRenderer
	cache        *cache.Cache[*Run]
	policy       ai.PolicyFilter
	policyStages PolicyStage
	retry        retry.Config
	stepTimeout  time.Duration
	recoveryTmpl string
}

// NewRunner creates a runner with the default renderer, retry budget,
// and step timeout.
func NewRunner(provider ai.CompletionProvider, opts ...RunnerOption) *Runner {
	r := &Runner{
		provider:     provider,
		renderer:     render.New(),
		retry:        retry.DefaultConfig(),
		stepTimeout:  defaultStepTimeout,
		recoveryTmpl: defaultRecoveryTemplate,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the chain and returns a structured outcome. Runtime
// failures are absorbed into the outcome's status and error kind; the
// returned error is non-nil only for invalid arguments.
func (r *Runner) Run(ctx context.Context, spec *Spec, input string, opts ...RunOption) (*Outcome, error) {
	if spec == nil {
		return nil, errors.New("chain: nil spec")
	}
	o := ApplyRunOptions(opts...)

	if out := r.lookupCache(spec, input, o); out != nil {
		return out, nil
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	run := newRun(spec, input)
	event.Emit(o.Events, event.Event{Type: event.RunStarted, RunID: run.ID, Chain: run.Chain})

	switch spec.Kind() {
	case KindConditional:
		r.runConditional(ctx, spec, run, o)
	case KindParallel:
		r.runParallel(ctx, spec, run, o)
	default:
		r.runLinear(ctx, spec, run, o)
	}
	run.Duration = time.Since(run.Started)

	out := dispatch(spec, run)
	r.screenFinal(ctx, run, out)
	r.storeCache(spec, run, out, o)

	if out.Status == StatusFailure {
		event.Emit(o.Events, event.Event{
			Type: event.RunFailed, RunID: run.ID, Chain: run.Chain,
			Status: string(out.Status), Message: string(out.ErrorKind),
		})
	} else {
		event.Emit(o.Events, event.Event{
			Type: event.RunFinished, RunID: run.ID, Chain: run.Chain,
			Status: string(out.Status), Message: out.FinalOutput,
		})
	}
	return out, nil
}

// lookupCache serves a prior successful run when the chain is
// deterministic and the input matches. Replayed runs still emit the
// run lifecycle so observers see a complete stream.
func (r *Runner) lookupCache(spec *Spec, input string, o *RunOptions) *Outcome {
	if r.cache == nil || !spec.Deterministic() {
		return nil
	}
	cached, ok := r.cache.Get(cache.Key(spec.Hash(), input))
	if !ok {
		return nil
	}
	event.Emit(o.Events, event.Event{Type: event.RunStarted, RunID: cached.ID, Chain: cached.Chain})
	event.Emit(o.Events, event.Event{Type: event.CacheHit, RunID: cached.ID, Chain: cached.Chain})
	event.Emit(o.Events, event.Event{
		Type: event.RunFinished, RunID: cached.ID, Chain: cached.Chain,
		Status: string(cached.Status), Message: cached.FinalOutput,
	})
	return &Outcome{
		Status:      cached.Status,
		FinalOutput: cached.FinalOutput,
		Run:         cached,
		CacheHit:    true,
	}
}

// storeCache records a fully successful run of a deterministic chain.
func (r *Runner) storeCache(spec *Spec, run *Run, out *Outcome, o *RunOptions) {
	if r.cache == nil || !spec.Deterministic() || out.Status != StatusSuccess {
		return
	}
	r.cache.Put(cache.Key(spec.Hash(), run.Input), run)
	event.Emit(o.Events, event.Event{Type: event.CacheStored, RunID: run.ID, Chain: run.Chain})
}

// screenFinal applies the policy filter to the final output. A flagged
// or unscreenable result downgrades the run to a content failure.
func (r *Runner) screenFinal(ctx context.Context, run *Run, out *Outcome) {
	if r.policy == nil || r.policyStages&PolicyFinal == 0 {
		return
	}
	if out.Status == StatusFailure || out.FinalOutput == "" {
		return
	}
	cat, err := r.policy.Classify(ctx, out.FinalOutput)
	if err == nil && cat == ai.PolicyAllowed {
		return
	}
	if err != nil {
		run.logf("final output screening failed: %v", err)
	} else {
		run.logf("final output blocked by policy: %s", cat)
	}
	out.Status = StatusFailure
	out.FinalOutput = ""
	out.ErrorKind = ai.KindContentFiltered
	out.RecoverySuggestion = suggestionFor(ai.KindContentFiltered)
	run.Status = StatusFailure
}

// executeStep runs one step through the full envelope: render, policy
// screen, bounded retries, validation, and the single recovery pass.
func (r *Runner) executeStep(ctx context.Context, step StepSpec, input, carry string, run *Run, o *RunOptions) (res StepResult) {
	start := time.Now()
	res = StepResult{Step: step.Name, Input: input}
	defer func() { res.Duration = time.Since(start) }()

	event.Emit(o.Events, event.Event{Type: event.StepStarted, RunID: run.ID, Chain: run.Chain, Step: step.Name})

	vars := map[string]any{"input": input}
	if carry != "" {
		vars["context"] = carry
	}
	prompt, err := r.renderer.Render(step.Template, vars)
	if err != nil {
		run.logf("step %s render failed: %v", step.Name, err)
		return r.failStep(res, step, err, run, o)
	}
	res.Input = prompt

	if blocked := r.screenPrompt(ctx, step, prompt, run); blocked != nil {
		return r.failStep(res, step, blocked, run, o)
	}

	output, attempts, err := r.invokeWithRetry(ctx, step, prompt, &res, run, o)
	res.Attempts = attempts
	if err == nil {
		err = r.validate(step, output, run)
	}
	if err == nil {
		res.Success = true
		res.Output = output
		event.Emit(o.Events, event.Event{Type: event.StepFinished, RunID: run.ID, Chain: run.Chain, Step: step.Name})
		return res
	}

	if recovered, ok := r.recoverStep(ctx, step, input, &res, run, o, err); ok {
		res.Success = true
		res.Output = recovered
		res.Recovered = true
		event.Emit(o.Events, event.Event{Type: event.StepFinished, RunID: run.ID, Chain: run.Chain, Step: step.Name})
		return res
	}
	return r.failStep(res, step, err, run, o)
}

// failStep finalizes a failed step result.
func (r *Runner) failStep(res StepResult, step StepSpec, err error, run *Run, o *RunOptions) StepResult {
	res.Err = &StepError{Step: step.Name, Err: err}
	event.Emit(o.Events, event.Event{
		Type: event.StepFailed, RunID: run.ID, Chain: run.Chain, Step: step.Name, Err: res.Err,
	})
	return res
}

// screenPrompt applies the policy filter to a rendered prompt. An
// unscreenable prompt is treated as blocked.
func (r *Runner) screenPrompt(ctx context.Context, step StepSpec, prompt string, run *Run) error {
	if r.policy == nil || r.policyStages&PolicyPrompts == 0 {
		return nil
	}
	cat, err := r.policy.Classify(ctx, prompt)
	if err != nil {
		run.logf("step %s prompt screening failed: %v", step.Name, err)
		return ai.NewContentFilteredError("prompt screening unavailable", err)
	}
	if cat != ai.PolicyAllowed {
		run.logf("step %s prompt blocked by policy: %s", step.Name, cat)
		return ai.NewContentFilteredError("prompt blocked by policy: "+string(cat), nil)
	}
	return nil
}

// invokeWithRetry calls the provider under the step's retry budget.
// Each attempt gets a fresh timeout capped by the remaining chain
// deadline. Usage from every attempt accumulates into res.
func (r *Runner) invokeWithRetry(ctx context.Context, step StepSpec, prompt string, res *StepResult, run *Run, o *RunOptions) (string, int, error) {
	cfg := r.retry
	if step.MaxAttempts > 0 {
		cfg = cfg.WithAttempts(step.MaxAttempts)
	}
	budget := r.stepTimeout
	if step.Timeout > 0 {
		budget = step.Timeout
	}

	var retryCh chan retry.Event
	var done chan struct{}
	if o.Events != nil {
		retryCh = make(chan retry.Event, 16)
		done = make(chan struct{})
		go forwardRetryEvents(retryCh, done, run, step.Name, o.Events)
	}

	output, attempts, err := retry.DoWithEvents(ctx, cfg, retryCh, func() (string, error) {
		callCtx := ctx
		if budget > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, budget)
			defer cancel()
		}
		comp, cerr := r.provider.Complete(callCtx, prompt, o.Completion...)
		if cerr != nil {
			return "", cerr
		}
		res.Usage = res.Usage.Add(comp.Usage)
		return comp.Content, nil
	})
	if retryCh != nil {
		close(retryCh)
		<-done
	}
	if err != nil {
		run.logf("step %s failed after %d attempt(s): %v", step.Name, attempts, err)
	}
	return output, attempts, err
}

// forwardRetryEvents translates retry progress into chain events.
func forwardRetryEvents(in <-chan retry.Event, done chan<- struct{}, run *Run, step string, out chan<- event.Event) {
	defer close(done)
	for e := range in {
		ev := event.Event{
			RunID: run.ID, Chain: run.Chain, Step: step,
			Attempt: e.Attempt, MaxAttempts: e.MaxAttempts, Err: e.Err,
		}
		switch e.Type {
		case retry.EventAttemptStart:
			ev.Type = event.RetryAttempt
		case retry.EventRetrying:
			ev.Type = event.RetryBackoff
			ev.Delay = e.Delay
		case retry.EventExhausted:
			ev.Type = event.RetryExhausted
		default:
			continue
		}
		event.Emit(out, ev)
	}
}

// validate applies the step's predicate to accepted output.
func (r *Runner) validate(step StepSpec, output string, run *Run) error {
	if step.Validate == nil {
		return nil
	}
	if verr := step.Validate(output); verr != nil {
		run.logf("step %s output rejected: %v", step.Name, verr)
		return &ai.ValidationError{Step: step.Name, Reason: verr}
	}
	return nil
}

// recoverStep makes the single recovery pass: one provider call with a
// prompt that embeds the step description, the recent run log, and the
// original input. The recovered output must still pass validation.
// Content-filtered failures and dead contexts skip recovery.
func (r *Runner) recoverStep(ctx context.Context, step StepSpec, input string, res *StepResult, run *Run, o *RunOptions, cause error) (string, bool) {
	if ctx.Err() != nil || ai.KindOf(cause) == ai.KindContentFiltered {
		return "", false
	}
	event.Emit(o.Events, event.Event{Type: event.RecoveryStarted, RunID: run.ID, Chain: run.Chain, Step: step.Name})

	desc := step.Description
	if desc == "" {
		desc = step.Name
	}
	vars := map[string]any{
		"description": desc,
		"log":         strings.Join(run.tailLog(3), "\n"),
		"input":       input,
	}
	prompt, err := r.renderer.Render(r.recoveryTmpl, vars)
	if err == nil {
		err = r.screenPrompt(ctx, step, prompt, run)
	}
	if err == nil {
		budget := r.stepTimeout
		if step.Timeout > 0 {
			budget = step.Timeout
		}
		callCtx := ctx
		if budget > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, budget)
			defer cancel()
		}
		var comp *ai.Completion
		comp, err = r.provider.Complete(callCtx, prompt, o.Completion...)
		if err == nil {
			res.Usage = res.Usage.Add(comp.Usage)
			if err = r.validate(step, comp.Content, run); err == nil {
				event.Emit(o.Events, event.Event{Type: event.RecoverySucceeded, RunID: run.ID, Chain: run.Chain, Step: step.Name})
				return comp.Content, true
			}
		}
	}
	run.logf("step %s recovery failed: %v", step.Name, err)
	event.Emit(o.Events, event.Event{Type: event.RecoveryFailed, RunID: run.ID, Chain: run.Chain, Step: step.Name, Err: err})
	return "", false
}

// tailExcerpt returns the trailing n bytes of the joined transcript,
// aligned to a rune boundary.
func tailExcerpt(transcript []string, n int) string {
	if n <= 0 || len(transcript) == 0 {
		return ""
	}
	joined := strings.Join(transcript, "\n")
	if len(joined) <= n {
		return joined
	}
	cut := joined[len(joined)-n:]
	for len(cut) > 0 && !utf8.RuneStart(cut[0]) {
		cut = cut[1:]
	}
	return cut
}
