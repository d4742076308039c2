package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spetersoncode/strand/chain"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// NewServer creates an MCP server that exposes every chain in the registry
// as a callable tool. Each call runs the chain through the runner with the
// request's "input" argument.
//
// Example:
//
//	registry := chain.NewRegistry()
//	registry.MustRegister(summarize)
//
//	mcpServer := mcp.NewServer(registry, runner,
//	    mcp.WithName("my-chains"),
//	    mcp.WithVersion("1.0.0"),
//	)
//
//	server.ServeStdio(mcpServer)
func NewServer(registry *chain.Registry, runner *chain.Runner, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "strand-mcp-server",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	// Register each chain from the registry with the MCP server
	for _, name := range registry.Names() {
		spec, err := registry.Get(name)
		if err != nil {
			continue
		}
		s.AddTool(ToMCPTool(spec), createChainHandler(runner, spec))
	}

	return s
}

// createChainHandler wraps a chain spec as an MCP tool handler.
func createChainHandler(runner *chain.Runner, spec *chain.Spec) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := req.RequireString("input")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		outcome, err := runner.Run(ctx, spec, input)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if outcome.Status == chain.StatusFailure {
			msg := fmt.Sprintf("chain %q failed (%s): %s", spec.Name(), outcome.ErrorKind, outcome.RecoverySuggestion)
			return mcp.NewToolResultError(msg), nil
		}

		return mcp.NewToolResultText(outcome.FinalOutput), nil
	}
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
//
// Example:
//
//	if err := mcp.ServeStdio(registry, runner); err != nil {
//	    log.Fatal(err)
//	}
func ServeStdio(registry *chain.Registry, runner *chain.Runner, opts ...ServerOption) error {
	s := NewServer(registry, runner, opts...)
	return server.ServeStdio(s)
}
