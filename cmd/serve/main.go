// Command serve exposes the sample chains over HTTP, streaming run
// progress as AG-UI events via Server-Sent Events (SSE).
//
// Endpoints:
//
//	GET  /chains             - list registered chains
//	POST /chains/{name}/run  - run a chain, body {"input": "..."}
//	GET  /health             - health check
//
// Usage:
//
//	go run ./cmd/serve
//	curl -N -X POST localhost:8000/chains/summarize/run -d '{"input":"..."}'
//
// Environment variables:
//
//	STRAND_PORT        Server port (default "8000")
//	STRAND_LOG_LEVEL   Log level: debug, info, warn, or error (default "info")
//	STRAND_PROVIDER    Provider to use: anthropic, openai, or google (default "anthropic")
//	STRAND_MODEL       Model override (optional, provider default otherwise)
//	STRAND_TIMEOUT     Per-run timeout as a Go duration (default "2m")
//	STRAND_STRICT      Abort runs on the first step failure (default "false")
//	STRAND_CACHE_SIZE  Run cache capacity, 0 disables caching (default "256")
//	ANTHROPIC_API_KEY  Required when STRAND_PROVIDER=anthropic
//	OPENAI_API_KEY     Required when STRAND_PROVIDER=openai
//	GOOGLE_API_KEY     Required when STRAND_PROVIDER=google
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ai "github.com/spetersoncode/strand"
	"github.com/spetersoncode/strand/cache"
	"github.com/spetersoncode/strand/chain"
	"github.com/spetersoncode/strand/provider/anthropic"
	"github.com/spetersoncode/strand/provider/google"
	"github.com/spetersoncode/strand/provider/openai"
)

func main() {
	// Load configuration
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	setupLogging(cfg.LogLevel)

	// Create completion provider
	provider, err := createProvider(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Provider error: %v", err)
	}

	// Build the chain registry
	registry, err := buildRegistry()
	if err != nil {
		log.Fatalf("Failed to build chains: %v", err)
	}

	// Create runner; deterministic chains replay repeat inputs from the cache
	runnerOpts := []chain.RunnerOption{}
	if cfg.CacheSize > 0 {
		runnerOpts = append(runnerOpts,
			chain.WithCache(cache.New[*chain.Run](cache.WithCapacity(cfg.CacheSize))))
	}
	runner := chain.NewRunner(provider, runnerOpts...)

	// Create HTTP handler
	handler := NewChainHandler(registry, runner, cfg)

	// Setup routes
	mux := http.NewServeMux()
	mux.Handle("/chains", corsMiddleware(http.HandlerFunc(handler.List)))
	mux.Handle("/chains/", corsMiddleware(handler))
	mux.HandleFunc("/health", healthHandler)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("Chain server starting on :%s", cfg.Port)
	log.Printf("Provider: %s", cfg.Provider)
	log.Printf("Chains:   GET  http://localhost:%s/chains", cfg.Port)
	log.Printf("Run:      POST http://localhost:%s/chains/{name}/run", cfg.Port)
	log.Printf("Health:   GET  http://localhost:%s/health", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging installs a default slog handler at the configured level.
func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
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
