// SPDX-License-Identifier: Apache-2.0
package registry

import (
	"context"
	"fmt"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
)

// RememberToolName is the fixed name of the memory write-through tool
// auto-registered whenever a runtime is configured with memory.
const RememberToolName = "remember"

// RegisterRememberTool registers the "remember" tool, whose handler
// writes through to mem. It is idempotent: calling it again (e.g. after
// swapping memory backends) simply replaces the previous handler.
func RegisterRememberTool(r *Registry, mem core.Memory) {
	tool := llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:        RememberToolName,
			Description: "Store a durable fact for later recall across sessions.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key":   map[string]any{"type": "string"},
					"value": map[string]any{"type": "string"},
				},
				"required": []string{"key", "value"},
			},
		},
	}

	r.Register(tool, func(ctx context.Context, args map[string]any) (string, error) {
		key, _ := args["key"].(string)
		value, _ := args["value"].(string)
		if key == "" {
			return "", fmt.Errorf("remember: key is required")
		}
		if err := mem.Set(ctx, key, value); err != nil {
			return "", err
		}
		return "stored", nil
	})
}
