// Command mcp serves the sample chains as MCP tools over stdio.
//
// Each registered chain becomes one MCP tool taking a single "input"
// string, so MCP clients (like Claude Desktop or other AI assistants)
// can discover and run the chains.
//
// Usage:
//
//	go run ./cmd/mcp
//
// Configuration for Claude Desktop (~/Library/Application Support/Claude/claude_desktop_config.json):
//
//	{
//	    "mcpServers": {
//	        "strand-chains": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp"],
//	            "cwd": "/path/to/strand",
//	            "env": {"ANTHROPIC_API_KEY": "sk-..."}
//	        }
//	    }
//	}
//
// Environment variables:
//
//	STRAND_PROVIDER    Provider to use: anthropic, openai, or google (default "anthropic")
//	STRAND_MODEL       Model override (optional, provider default otherwise)
//	ANTHROPIC_API_KEY  Required when STRAND_PROVIDER=anthropic
//	OPENAI_API_KEY     Required when STRAND_PROVIDER=openai
//	GOOGLE_API_KEY     Required when STRAND_PROVIDER=google
package main

import (
	"context"
	"fmt"
	"log"

	ai "github.com/spetersoncode/strand"
	"github.com/spetersoncode/strand/cache"
	"github.com/spetersoncode/strand/chain"
	"github.com/spetersoncode/strand/mcp"
	"github.com/spetersoncode/strand/provider/anthropic"
	"github.com/spetersoncode/strand/provider/google"
	"github.com/spetersoncode/strand/provider/openai"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	provider, err := createProvider(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Provider error: %v", err)
	}

	registry, err := buildRegistry()
	if err != nil {
		log.Fatalf("Failed to build chains: %v", err)
	}

	// The digest chain is deterministic, so repeat inputs replay from
	// the cache instead of spending tokens.
	runner := chain.NewRunner(provider,
		chain.WithCache(cache.New[*chain.Run](cache.WithCapacity(128))),
	)

	if err := mcp.ServeStdio(registry, runner,
		mcp.WithName("strand-chains"),
		mcp.WithVersion("1.0.0"),
	); err != nil {
		log.Fatal(err)
	}
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
