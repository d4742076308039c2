package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/strand/agui"
	"github.com/spetersoncode/strand/chain"
	"github.com/spetersoncode/strand/event"
)

// runChainRequest is the request body for POST /chains/{name}/run.
type runChainRequest struct {
	// Input is the text fed to the chain's first step.
	Input string `json:"input"`

	// ThreadID and RunID are optional AG-UI identifiers; fresh ones are
	// generated when absent.
	ThreadID string `json:"threadId,omitempty"`
	RunID    string `json:"runId,omitempty"`
}

// chainInfo is one entry in the GET /chains listing.
type chainInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ChainHandler runs registered chains and streams AG-UI events over SSE.
type ChainHandler struct {
	registry *chain.Registry
	runner   *chain.Runner
	config   *Config
}

// NewChainHandler creates a new handler for the given registry and runner.
func NewChainHandler(registry *chain.Registry, runner *chain.Runner, cfg *Config) *ChainHandler {
	return &ChainHandler{registry: registry, runner: runner, config: cfg}
}

// List handles GET /chains with a JSON listing of the registered chains.
func (h *ChainHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	infos := make([]chainInfo, 0, h.registry.Len())
	for _, name := range h.registry.Names() {
		spec, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, chainInfo{Name: spec.Name(), Description: spec.Description()})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

// ServeHTTP handles POST /chains/{name}/run, streaming run events via SSE.
func (h *ChainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Only accept POST
	if r.Method != http.MethodPost {
		slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, ok := chainNameFromPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	spec, err := h.registry.Get(name)
	if err != nil {
		slog.Warn("chain not found", "chain", name)
		http.Error(w, fmt.Sprintf("chain not found: %s", name), http.StatusNotFound)
		return
	}

	// Parse request body
	var req runChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		http.Error(w, "Field \"input\" is required", http.StatusBadRequest)
		return
	}

	// Create mapper for this run; it generates any missing identifiers
	mapper := agui.NewMapper(req.ThreadID, req.RunID)

	// Create request-scoped logger
	log := slog.With(
		"chain", name,
		"run_id", mapper.RunID(),
		"thread_id", mapper.ThreadID(),
	)

	log.Info("request started", "input_bytes", len(req.Input))

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Get flusher for streaming
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Run the chain in the background; the runner stops emitting before
	// Run returns, so closing the channel there is safe.
	ctx := r.Context()
	events := event.NewChannel()

	opts := []chain.RunOption{
		chain.WithEvents(events),
		chain.WithTimeout(h.config.Timeout),
	}
	if h.config.Strict {
		opts = append(opts, chain.Strict())
	}

	var runErr error
	go func() {
		defer close(events)
		_, runErr = h.runner.Run(ctx, spec, req.Input, opts...)
	}()

	// Stream events as SSE using the mapper's filtered stream
	var eventCount int
	for aguiEvent := range mapper.MapStream(events) {
		eventCount++
		log.Debug("sending SSE event",
			"event_type", aguiEvent.Type(),
			"event_num", eventCount,
		)

		if err := writeSSE(w, flusher, aguiEvent); err != nil {
			log.Error("failed to write SSE event", "error", err, "event_type", aguiEvent.Type())
			return
		}
	}

	// Run only errors on invalid arguments, before emitting anything, so
	// the client still needs a terminal event.
	if runErr != nil {
		log.Warn("run rejected", "error", runErr)
		if err := writeSSE(w, flusher, mapper.RunError(runErr.Error())); err != nil {
			log.Error("failed to write SSE event", "error", err)
			return
		}
		eventCount++
	}

	log.Info("request completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"events_sent", eventCount,
	)
}

// chainNameFromPath extracts the chain name from a /chains/{name}/run path.
func chainNameFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/chains/")
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, "/run")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// writeSSE writes an AG-UI event in SSE format.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev aguievents.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	// Write SSE format: event: TYPE\ndata: {json}\n\n
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), string(data)); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	flusher.Flush()
	return nil
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
