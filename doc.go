// Package strand orchestrates multi-step pipelines ("chains") of calls to a
// generative text-completion provider, coordinating retries, conditional
// branching, concurrent fan-out, result caching, and partial-failure recovery.
//
// The root package defines the contracts the engine is built on:
//
//   - [CompletionProvider]: one remote text-generation call
//   - [ProviderError] and [ValidationError]: the failure taxonomy
//   - [Option]: opaque per-request configuration (model, tokens, temperature)
//   - [PolicyFilter]: an optional content-policy boundary
//
// Chains themselves live in [github.com/spetersoncode/strand/chain]; provider
// adapters live under provider/.
//
// # Basic Usage
//
// Build a chain, then drive it with a runner:
//
//	client := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))
//
//	spec, err := chain.NewLinear("summarize", []chain.StepSpec{
//	    {Name: "extract", Template: "List the key facts in:\n{{.input}}"},
//	    {Name: "summarize", Template: "Summarize these facts:\n{{.input}}", MaxAttempts: 3},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	runner := chain.NewRunner(client)
//	outcome, err := runner.Run(ctx, spec, document)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	switch outcome.Status {
//	case chain.StatusSuccess, chain.StatusPartial:
//	    fmt.Println(outcome.FinalOutput)
//	case chain.StatusFailure:
//	    fmt.Println(outcome.ErrorKind, outcome.RecoverySuggestion)
//	}
//
// Runs never panic and never return raised faults: every execution produces
// an [github.com/spetersoncode/strand/chain.Outcome] whose Status field must
// be inspected before the final output is trusted. Run returns an ordinary
// error only when called with invalid arguments, before any provider call;
// chain construction likewise fails eagerly, at build time.
//
// # Configuration Options
//
// Provider requests accept functional options, passed through unmodified:
//
//	runner.Run(ctx, spec, input,
//	    chain.WithCompletionOptions(
//	        strand.WithModel("claude-sonnet-4-5"),
//	        strand.WithMaxTokens(1000),
//	        strand.WithTemperature(0.2),
//	    ),
//	)
//
// # Error Classification
//
// Provider failures carry an [ErrorKind]. Timeout, rate-limited, and
// transient network failures are retryable; content-filtered and unknown
// failures fail fast. [KindOf] classifies arbitrary errors, falling back to
// network heuristics for errors that do not carry a kind.
//
// # Higher-Level Surfaces
//
// Registered chains can be exposed to MCP clients with
// [github.com/spetersoncode/strand/mcp] and streamed to AG-UI front ends
// with [github.com/spetersoncode/strand/agui].
package strand
