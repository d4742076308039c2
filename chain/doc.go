// Package chain orchestrates multi-step completion pipelines with
// retries, conditional branching, concurrent fan-out, caching, and
// partial-failure recovery.
//
// A chain is described by an immutable Spec built from StepSpecs and
// executed by a Runner. Three topologies are supported:
//   - Linear: steps run in order, each consuming the previous output
//   - Conditional: branch predicates over step output select the next step
//   - Parallel: branches run concurrently, then an aggregation step joins them
//
// # Basic Usage
//
// Build a spec, then run it:
//
//	spec, err := chain.NewLinear("summarize", []chain.StepSpec{
//	    {Name: "extract", Template: "List the key facts in:\n{{.input}}"},
//	    {Name: "summarize", Template: "Write one paragraph from these facts:\n{{.input}}"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	runner := chain.NewRunner(provider)
//	out, err := runner.Run(ctx, spec, article)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	switch out.Status {
//	case chain.StatusSuccess, chain.StatusPartial:
//	    fmt.Println(out.FinalOutput)
//	case chain.StatusFailure:
//	    fmt.Println(out.ErrorKind, out.RecoverySuggestion)
//	}
//
// Construction errors surface immediately from the New* functions.
// Runtime failures never surface as errors from Run; they are absorbed
// into the outcome's status, error kind, and recovery suggestion.
// Always inspect Status before trusting FinalOutput.
//
// # Conditional Routing
//
// Branches route on a step's output via declarative predicates,
// evaluated in declaration order with a required trailing default:
//
//	spec, err := chain.NewConditional("triage", []chain.StepSpec{
//	    {
//	        Name:     "classify",
//	        Template: "Classify as urgent, question, or other:\n{{.input}}",
//	        Branches: []chain.Branch{
//	            {When: chain.Contains("urgent"), To: "escalate"},
//	            {When: chain.Contains("question"), To: "answer"},
//	            {When: chain.Otherwise(), To: "acknowledge"},
//	        },
//	    },
//	    {Name: "escalate", Template: "Draft an escalation notice for:\n{{.input}}"},
//	    {Name: "answer", Template: "Answer this question:\n{{.input}}"},
//	    {Name: "acknowledge", Template: "Write a brief acknowledgement of:\n{{.input}}"},
//	})
//
// The executed route is recorded in the run's Path.
//
// # Parallel Fan-Out
//
// Branches receive the same input concurrently; the aggregation step
// sees the successful outputs joined in declaration order regardless
// of completion timing:
//
//	spec, err := chain.NewParallel("digest",
//	    []chain.StepSpec{
//	        {Name: "facts", Template: "List the facts in:\n{{.input}}"},
//	        {Name: "tone", Template: "Describe the tone of:\n{{.input}}"},
//	    },
//	    chain.StepSpec{Name: "combine", Template: "Merge into one digest:\n{{.input}}"},
//	)
//
// # Resilience
//
// Each step runs under a bounded retry budget with exponential
// backoff; only timeouts, rate limits, and transient network errors
// are retried. After the budget is exhausted or a validation predicate
// rejects the output, the runner makes exactly one recovery pass with
// a prompt describing the failure. A failed non-final step does not
// abort the run: the next step reuses the last good output and the
// run degrades to StatusPartial. Pass Strict() to abort on the first
// failure instead.
//
// # Caching
//
// Chains marked Deterministic() are eligible for result caching:
//
//	runner := chain.NewRunner(provider,
//	    chain.WithCache(cache.New[*chain.Run](cache.WithCapacity(256))),
//	)
//
// A second run with identical input returns the recorded run with
// CacheHit set.
//
// # Events
//
// Pass an event channel to observe progress; emission never blocks:
//
//	events := event.NewChannel()
//	go func() {
//	    for ev := range events {
//	        fmt.Println(ev.Type, ev.Step)
//	    }
//	}()
//	out, err := runner.Run(ctx, spec, input, chain.WithEvents(events))
//	close(events) // the runner never emits after Run returns
package chain
