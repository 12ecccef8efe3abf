// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"strings"
	"testing"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
)

func TestBuildTeamDelegatesToWorkerWithIndependentSession(t *testing.T) {
	provider := llm.NewScriptedProviderWithSteps(
		llm.ChatResponse{
			ToolCalls: []llm.ToolCall{{
				ID:       "t1",
				Type:     llm.ToolTypeFunction,
				Function: llm.FunctionCall{Name: "researcher", Arguments: `{"input":"find the answer"}`},
			}},
		},
		llm.ChatResponse{Content: "the answer is 42"},
		llm.ChatResponse{Content: "here's what I found: 42"},
	)
	rt := New(provider)

	leader := core.NewAgentConfig("lead", core.WithTools("researcher"))
	worker := core.NewAgentConfig("researcher", core.WithDescription("looks things up"))
	rt.BuildTeam(leader, []*core.AgentConfig{worker})

	reply, err := rt.SendTo(context.Background(), "lead", "find the answer")
	if err != nil {
		t.Fatalf("send_to: %v", err)
	}
	if reply != "here's what I found: 42" {
		t.Fatalf("unexpected leader reply: %q", reply)
	}

	leaderHistory := rt.sessions.Snapshot("lead")
	workerHistory := rt.sessions.Snapshot("researcher")
	if len(leaderHistory) == 0 || len(workerHistory) == 0 {
		t.Fatal("expected both leader and worker to have their own session history")
	}
	if workerHistory[1].Role != llm.RoleUser || workerHistory[1].Content != "find the answer" {
		t.Fatalf("expected worker's own session to carry the delegated input, got %+v", workerHistory)
	}
	if workerHistory[2].Content != "the answer is 42" {
		t.Fatalf("expected worker's final assistant text, got %+v", workerHistory[2])
	}
}

// TestBuildTeamCapsDelegationDepth builds a chain of six agents, each
// delegating to the next via a worker tool named after its config's
// tool_names (the untrusted-configuration path BuildTeam itself never
// wires directly). The fifth delegation (a4 -> a5) must be refused
// once the chain's depth exceeds maxTeamDepth, without the refusal
// surfacing as a send_to error at the top of the chain.
func TestBuildTeamCapsDelegationDepth(t *testing.T) {
	provider := llm.NewScriptedProviderWithSteps(
		toolCallStep("a1"),
		toolCallStep("a2"),
		toolCallStep("a3"),
		toolCallStep("a4"),
		toolCallStep("a5"),
		llm.ChatResponse{Content: "a4 done"},
		llm.ChatResponse{Content: "a3 done"},
		llm.ChatResponse{Content: "a2 done"},
		llm.ChatResponse{Content: "a1 done"},
		llm.ChatResponse{Content: "a0 done"},
	)

	var diagnostics []core.DiagnosticEvent
	rt := New(provider, WithDiagnostics(sinkFunc(func(e core.DiagnosticEvent) {
		diagnostics = append(diagnostics, e)
	})))

	a0 := core.NewAgentConfig("a0", core.WithTools("a1"))
	a1 := core.NewAgentConfig("a1", core.WithTools("a2"), core.WithDescription("a1"))
	a2 := core.NewAgentConfig("a2", core.WithTools("a3"), core.WithDescription("a2"))
	a3 := core.NewAgentConfig("a3", core.WithTools("a4"), core.WithDescription("a3"))
	a4 := core.NewAgentConfig("a4", core.WithTools("a5"), core.WithDescription("a4"))
	a5 := core.NewAgentConfig("a5", core.WithDescription("a5"))

	rt.BuildTeam(a0, []*core.AgentConfig{a1})
	rt.BuildTeam(a1, []*core.AgentConfig{a2})
	rt.BuildTeam(a2, []*core.AgentConfig{a3})
	rt.BuildTeam(a3, []*core.AgentConfig{a4})
	rt.BuildTeam(a4, []*core.AgentConfig{a5})

	reply, err := rt.SendTo(context.Background(), "a0", "go")
	if err != nil {
		t.Fatalf("send_to: %v", err)
	}
	if reply != "a0 done" {
		t.Fatalf("expected the chain to unwind to a0's own reply, got %q", reply)
	}

	a4History := rt.sessions.Snapshot("a4")
	var sawDepthError bool
	for _, m := range a4History {
		if m.Role == llm.RoleTool && strings.Contains(m.Content, "depth exceeded") {
			sawDepthError = true
		}
	}
	if !sawDepthError {
		t.Fatalf("expected a4's session to carry the depth-exceeded tool result, got %+v", a4History)
	}

	found := false
	for _, d := range diagnostics {
		if d.Kind == core.DiagnosticTeamDepthExceeded && d.AgentName == "a5" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a team_depth_exceeded diagnostic for a5, got %+v", diagnostics)
	}
}

func toolCallStep(agentName string) llm.ChatResponse {
	return llm.ChatResponse{
		ToolCalls: []llm.ToolCall{{
			ID:       "call-" + agentName,
			Type:     llm.ToolTypeFunction,
			Function: llm.FunctionCall{Name: agentName, Arguments: `{"input":"go"}`},
		}},
	}
}
