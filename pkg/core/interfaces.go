// SPDX-License-Identifier: Apache-2.0
// Package core provides the shared data model and collaborator interfaces
// for loom agents: tools, agent configuration, sessions, and memory.
package core

import (
	"context"

	"github.com/loomkit/loom/pkg/llm"
)

// Tool is anything that can be invoked by name with an argument payload.
// Connectors, the MCP bridge, and skills all produce values satisfying
// this interface; the registry adapts them into Handlers.
type Tool interface {
	Name() string
	Call(ctx context.Context, input any) (any, error)
}

// Definable is implemented by Tools that can describe their own schema
// for the provider's function-calling surface.
type Definable interface {
	ToolDefinition() llm.Tool
}

// Handler is the registry's native invocation shape: an opaque
// asynchronous function from arguments to a textual result. The
// registry owns handlers; dispatch only ever borrows one.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// HandlerFromTool adapts a Tool into a Handler by stringifying its Call
// result; the tool's schema, if it is Definable, is not consulted here. This is
// the seam every adapter package (connectors, mcp, skills) registers
// through, so the registry never needs to know a tool's origin.
func HandlerFromTool(t Tool) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		out, err := t.Call(ctx, args)
		if err != nil {
			return "", err
		}
		return stringifyResult(out)
	}
}
