package strand

import "context"

// CompletionProvider is the sole side-effecting boundary of the engine: one
// remote text-generation call. Implementations must be safe for concurrent
// use with no shared mutable state across calls, and must honor ctx for
// timeouts and cancellation. Failures should be returned as *ProviderError
// so the engine can classify them; unclassified errors are handled
// heuristically.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string, opts ...Option) (*Completion, error)
}

// Completion is the result of one provider call.
type Completion struct {
	// Content is the generated text.
	Content string

	// Model is the model that produced the completion, when reported.
	Model string

	// FinishReason is the provider's stop reason, normalized to the
	// provider's own vocabulary.
	FinishReason string

	// Usage reports token consumption for the call.
	Usage Usage
}

// Usage contains token usage statistics for a completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add returns the combined usage of two calls.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}
