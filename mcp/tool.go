// Package mcp exposes a chain registry as an MCP (Model Context Protocol)
// server.
//
// Every registered chain becomes a callable tool: MCP clients like Claude
// Desktop discover the chains by name, call them with a single text input,
// and receive the chain's final output. Failed runs surface as MCP error
// results carrying the failure kind and a recovery suggestion.
//
// # Serving Chains
//
//	registry := chain.NewRegistry()
//	registry.MustRegister(summarize)
//	registry.MustRegister(triage)
//
//	runner := chain.NewRunner(provider)
//
//	// Serve over stdio (for subprocess-based MCP clients)
//	if err := mcp.ServeStdio(registry, runner); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spetersoncode/strand/chain"
)

// chainInputSchema is the argument schema shared by every chain tool: a
// single free-text input handed to the chain's first step.
const chainInputSchema = `{
  "type": "object",
  "properties": {
    "input": {
      "type": "string",
      "description": "Text passed to the chain's first step."
    }
  },
  "required": ["input"]
}`

// ToMCPTool converts a chain spec to an MCP Tool. The tool name is the chain
// name and the input schema is the shared single-string schema.
func ToMCPTool(spec *chain.Spec) mcp.Tool {
	return mcp.NewToolWithRawSchema(spec.Name(), spec.Description(), []byte(chainInputSchema))
}
