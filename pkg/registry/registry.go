// SPDX-License-Identifier: Apache-2.0
// Package registry implements the Tool Registry: a mapping from tool
// name to schema and handler, shared across agents, skills, connectors,
// and the MCP bridge.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
)

type entry struct {
	tool    llm.Tool
	handler core.Handler
}

// ResolvedTool pairs a resolved schema with its handler.
type ResolvedTool struct {
	Tool    llm.Tool
	Handler core.Handler
}

// Registry is a concurrency-safe map from tool name to (schema,
// handler). Reads (resolve, dispatch) are concurrent; writes
// (register, unregister) take an exclusive lock.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register inserts or replaces an entry by tool.Function.Name.
func (r *Registry) Register(tool llm.Tool, handler core.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tool.Function.Name] = entry{tool: tool, handler: handler}
}

// RegisterTool registers a core.Tool under the given schema, adapting
// its Call method into a Handler. This is the seam connectors, the MCP
// bridge, and skills all register through.
func (r *Registry) RegisterTool(tool core.Tool, def llm.Tool) {
	r.Register(def, core.HandlerFromTool(tool))
}

// Unregister removes a tool by name. A no-op if the name is unknown.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Has reports whether name is registered exactly.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// ResolveTools expands names (literal tool names or "prefix*" globs)
// into the (schema, handler) pairs they reach, in input order,
// deduplicated while preserving first occurrence. Unknown literals and
// globs matching nothing are skipped and reported as warnings.
func (r *Registry) ResolveTools(names []string) ([]ResolvedTool, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(names))
	var out []ResolvedTool
	var warnings []string

	for _, name := range names {
		if prefix, isGlob := strings.CutSuffix(name, "*"); isGlob {
			matches := r.matchPrefixLocked(prefix)
			if len(matches) == 0 {
				warnings = append(warnings, fmt.Sprintf("tool pattern %q matched no registered tools", name))
				continue
			}
			for _, m := range matches {
				if seen[m] {
					continue
				}
				seen[m] = true
				e := r.entries[m]
				out = append(out, ResolvedTool{Tool: e.tool, Handler: e.handler})
			}
			continue
		}

		e, ok := r.entries[name]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown tool %q", name))
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, ResolvedTool{Tool: e.tool, Handler: e.handler})
	}

	return out, warnings
}

// Resolve is ResolveTools but returns only the schemas, for handing to
// a provider's tool-calling request.
func (r *Registry) Resolve(names []string) ([]llm.Tool, []string) {
	resolved, warnings := r.ResolveTools(names)
	schemas := make([]llm.Tool, len(resolved))
	for i, rt := range resolved {
		schemas[i] = rt.Tool
	}
	return schemas, warnings
}

func (r *Registry) matchPrefixLocked(prefix string) []string {
	var matches []string
	for name := range r.entries {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}

// Dispatch looks up call.Function.Name and invokes its handler. It
// never returns an error to the caller: a missing tool, malformed
// arguments, or a handler error are all serialized into the returned
// string, which becomes the next tool message's content.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) string {
	r.mu.RLock()
	e, ok := r.entries[call.Function.Name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Sprintf("error: tool %q not found", call.Function.Name)
	}

	args, err := parseArguments(call.Function.Arguments)
	if err != nil {
		return fmt.Sprintf("error: invalid arguments for %q: %v", call.Function.Name, err)
	}

	result, err := e.handler(ctx, args)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return result
}

func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}
