// Command demo runs the sample chains against text read from stdin.
//
// It runs the summarize pipeline first, then the triage router, printing
// step progress as each chain executes.
//
// Usage:
//
//	echo "Some text to process" | go run ./cmd/demo
//
// Environment variables:
//
//	STRAND_PROVIDER    Provider to use: anthropic, openai, or google (default "anthropic")
//	STRAND_MODEL       Model override (optional, provider default otherwise)
//	STRAND_TIMEOUT     Per-run timeout as a Go duration (default "2m")
//	ANTHROPIC_API_KEY  Required when STRAND_PROVIDER=anthropic
//	OPENAI_API_KEY     Required when STRAND_PROVIDER=openai
//	GOOGLE_API_KEY     Required when STRAND_PROVIDER=google
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	ai "github.com/spetersoncode/strand"
	"github.com/spetersoncode/strand/chain"
	"github.com/spetersoncode/strand/event"
	"github.com/spetersoncode/strand/provider/anthropic"
	"github.com/spetersoncode/strand/provider/google"
	"github.com/spetersoncode/strand/provider/openai"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx := context.Background()

	provider, err := createProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("Provider error: %v", err)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		log.Fatal("No input: pipe some text to stdin")
	}

	runner := chain.NewRunner(provider)

	summarize, err := buildSummarize()
	if err != nil {
		log.Fatalf("Failed to build summarize chain: %v", err)
	}
	triage, err := buildTriage()
	if err != nil {
		log.Fatalf("Failed to build triage chain: %v", err)
	}
	digest, err := buildDigest()
	if err != nil {
		log.Fatalf("Failed to build digest chain: %v", err)
	}

	fmt.Println("=== summarize ===")
	runChain(ctx, runner, summarize, input, cfg)

	fmt.Println("\n=== triage ===")
	runChain(ctx, runner, triage, input, cfg)

	fmt.Println("\n=== digest ===")
	runChain(ctx, runner, digest, input, cfg)
}

// createProvider builds the completion provider named by the configuration.
func createProvider(ctx context.Context, cfg *Config) (ai.CompletionProvider, error) {
	switch ai.ProviderID(cfg.Provider) {
	case ai.ProviderAnthropic:
		var opts []anthropic.ClientOption
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		return anthropic.New(cfg.AnthropicKey, opts...), nil
	case ai.ProviderOpenAI:
		var opts []openai.ClientOption
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		return openai.New(cfg.OpenAIKey, opts...), nil
	case ai.ProviderGoogle:
		var opts []google.ClientOption
		if cfg.Model != "" {
			opts = append(opts, google.WithModel(cfg.Model))
		}
		return google.New(ctx, cfg.GoogleKey, opts...)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// runChain executes one chain with progress printed to stdout.
func runChain(ctx context.Context, runner *chain.Runner, spec *chain.Spec, input string, cfg *Config) {
	events := event.NewChannel()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range events {
			switch ev.Type {
			case event.StepStarted:
				fmt.Printf("  > %s\n", ev.Step)
			case event.StepFailed:
				fmt.Printf("  ! %s: %v\n", ev.Step, ev.Err)
			case event.RetryBackoff:
				fmt.Printf("  ~ retrying in %s (attempt %d/%d)\n", ev.Delay, ev.Attempt, ev.MaxAttempts)
			case event.BranchSelected:
				target := ev.Branch
				if target == "" {
					target = "end"
				}
				fmt.Printf("  -> %s\n", target)
			case event.FanOutSettled:
				fmt.Printf("  = %s\n", ev.Message)
			}
		}
	}()

	outcome, err := runner.Run(ctx, spec, input,
		chain.WithEvents(events),
		chain.WithTimeout(cfg.Timeout),
	)

	// The runner never emits after Run returns.
	close(events)
	<-done

	if err != nil {
		fmt.Fprintf(os.Stderr, "Run error: %v\n", err)
		return
	}

	if outcome.Status != chain.StatusSuccess {
		fmt.Printf("  status: %s (%s)\n", outcome.Status, outcome.ErrorKind)
		if outcome.RecoverySuggestion != "" {
			fmt.Printf("  suggestion: %s\n", outcome.RecoverySuggestion)
		}
		if outcome.FinalOutput == "" {
			return
		}
	}

	fmt.Printf("\n%s\n", outcome.FinalOutput)
	if outcome.Run != nil {
		fmt.Printf("\n[Tokens: %d in, %d out]\n",
			outcome.Run.Usage.InputTokens,
			outcome.Run.Usage.OutputTokens)
	}
}
