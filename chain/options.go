package chain

import (
	"time"

	ai "github.com/spetersoncode/strand"
	"github.com/spetersoncode/strand/cache"
	"github.com/spetersoncode/strand/event"
	"github.com/spetersoncode/strand/retry"
)

// PolicyStage selects where a policy filter screens content.
type PolicyStage int

const (
	// PolicyPrompts screens every rendered prompt before it reaches
	// the provider.
	PolicyPrompts PolicyStage = 1 << iota

	// PolicyFinal screens the chain's final output.
	PolicyFinal
)

// RunnerOption configures a Runner at construction time.
type RunnerOption func(*Runner)

// WithRenderer replaces the default prompt renderer.
func WithRenderer(r TemplateRenderer) RunnerOption {
	return func(rn *Runner) {
		rn.renderer = r
	}
}

// WithCache attaches a run cache. Successful runs of deterministic
// chains are stored and replayed on input match.
func WithCache(c *cache.Cache[*Run]) RunnerOption {
	return func(rn *Runner) {
		rn.cache = c
	}
}

// WithPolicyFilter screens content at the given stages. Zero stages
// means both prompts and final output.
func WithPolicyFilter(f ai.PolicyFilter, stages PolicyStage) RunnerOption {
	return func(rn *Runner) {
		if stages == 0 {
			stages = PolicyPrompts | PolicyFinal
		}
		rn.policy = f
		rn.policyStages = stages
	}
}

// WithRetryConfig sets the default retry budget for steps that do not
// carry their own.
func WithRetryConfig(cfg retry.Config) RunnerOption {
	return func(rn *Runner) {
		rn.retry = cfg
	}
}

// WithStepTimeout sets the default per-step budget for steps that do
// not carry their own. Zero disables the default budget.
func WithStepTimeout(d time.Duration) RunnerOption {
	return func(rn *Runner) {
		rn.stepTimeout = d
	}
}

// WithRecoveryTemplate replaces the built-in recovery prompt. The
// template sees {{.description}}, {{.log}}, and {{.input}}.
func WithRecoveryTemplate(tmpl string) RunnerOption {
	return func(rn *Runner) {
		rn.recoveryTmpl = tmpl
	}
}

// RunOptions carries per-run configuration.
type RunOptions struct {
	// Timeout bounds the whole run. Zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration

	// Events receives progress events. Emission never blocks; a full
	// channel drops events.
	Events chan<- event.Event

	// Strict makes any step failure abort the run instead of carrying
	// the last good output forward.
	Strict bool

	// MaxConcurrency limits parallel fan-out (0 = unlimited).
	MaxConcurrency int

	// ContextCarry exposes the trailing n characters of accumulated
	// step outputs to templates as {{.context}} (0 = disabled).
	ContextCarry int

	// Completion options forwarded to every provider call.
	Completion []ai.Option
}

// RunOption is a functional option for a single run.
type RunOption func(*RunOptions)

// WithTimeout bounds the whole run.
func WithTimeout(d time.Duration) RunOption {
	return func(o *RunOptions) {
		o.Timeout = d
	}
}

// WithEvents streams progress events to ch.
func WithEvents(ch chan<- event.Event) RunOption {
	return func(o *RunOptions) {
		o.Events = ch
	}
}

// Strict aborts the run on the first step failure. The default mode
// carries the last successful output past failed optional steps.
func Strict() RunOption {
	return func(o *RunOptions) {
		o.Strict = true
	}
}

// WithMaxConcurrency limits parallel step execution.
// A value of 0 means unlimited concurrency.
func WithMaxConcurrency(n int) RunOption {
	return func(o *RunOptions) {
		o.MaxConcurrency = n
	}
}

// WithContextCarry exposes a trailing excerpt of the outputs produced
// so far to each template as {{.context}}.
func WithContextCarry(chars int) RunOption {
	return func(o *RunOptions) {
		o.ContextCarry = chars
	}
}

// WithCompletionOptions forwards options to every provider call.
func WithCompletionOptions(opts ...ai.Option) RunOption {
	return func(o *RunOptions) {
		o.Completion = append(o.Completion, opts...)
	}
}

// ApplyRunOptions applies functional options with defaults.
func ApplyRunOptions(opts ...RunOption) *RunOptions {
	o := &RunOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
