// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
)

// teamToolSchema is the fixed parameter schema every worker tool gets
// when registered by BuildTeam: a single free-text input field, not
// tailored per worker.
var teamToolSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"input": map[string]any{"type": "string"},
	},
}

// maxTeamDepth caps how many worker delegations may chain before the
// runtime refuses to recurse further. BuildTeam itself never wires a
// worker back into its own leader, but tool_names is configuration
// (skills can declare sub-agents), so a worker's config can still name
// another agent's delegation tool and chain indefinitely; this is the
// backstop for that untrusted-configuration path, not for the
// well-formed trees BuildTeam constructs directly.
const maxTeamDepth = 4

type teamDepthKey struct{}

func teamDepth(ctx context.Context) int {
	depth, _ := ctx.Value(teamDepthKey{}).(int)
	return depth
}

func withTeamDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, teamDepthKey{}, depth)
}

// BuildTeam registers one tool per worker on leader's effective tool
// set, named after the worker's agent name, so the leader can delegate
// a subtask by calling it like any other tool. Each worker runs in its
// own session, keyed by its own agent name in the shared Session
// Store, so it is never shared with the leader's or another worker's
// session. BuildTeam does not wire workers to recurse into the Team
// Composer themselves.
func (r *Runtime) BuildTeam(leader *core.AgentConfig, workers []*core.AgentConfig) {
	toolNames := append([]string(nil), leader.ToolNames()...)
	for _, worker := range workers {
		if !slices.Contains(toolNames, worker.Name()) {
			toolNames = append(toolNames, worker.Name())
		}
	}
	r.RegisterAgent(core.NewAgentConfig(leader.Name(),
		core.WithDescription(leader.Description()),
		core.WithSystemPrompt(leader.SystemPrompt()),
		core.WithTools(toolNames...),
		core.WithSkillTags(leader.SkillTags()...),
	))
	for _, worker := range workers {
		r.RegisterAgent(worker)
		r.registerWorkerTool(worker)
	}
}

func (r *Runtime) registerWorkerTool(worker *core.AgentConfig) {
	def := llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:        worker.Name(),
			Description: worker.Description(),
			Parameters:  teamToolSchema,
		},
	}
	handler := func(ctx context.Context, args map[string]any) (string, error) {
		depth := teamDepth(ctx) + 1
		if depth > maxTeamDepth {
			r.emit(core.DiagnosticTeamDepthExceeded, worker.Name(),
				fmt.Sprintf("delegation chain exceeded max depth %d", maxTeamDepth))
			return "", fmt.Errorf("runtime: team delegation depth exceeded (max %d)", maxTeamDepth)
		}
		input, _ := args["input"].(string)
		return r.SendTo(withTeamDepth(ctx, depth), worker.Name(), input)
	}
	r.RegisterHandler(def, handler)
}
