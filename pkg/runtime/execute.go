// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
)

// SendTo runs the non-streaming execution loop for agentName: it
// assembles a per-request system prompt, appends userMessage, and
// drives provider turns until the model replies with no tool calls or
// the round cap is hit. It returns the assistant's final text.
func (r *Runtime) SendTo(ctx context.Context, agentName, userMessage string) (string, error) {
	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := r.tracer.Start(ctx, "runtime.send_to", trace.WithAttributes(
		attribute.String("agent", agentName),
		attribute.String("run_id", runID),
	))
	defer span.End()

	cfg, err := r.agentConfig(agentName)
	if err != nil {
		return "", err
	}

	assembled := r.assembler().Assemble(ctx, cfg, r.currentMemory(), userMessage)
	schemas, _ := r.resolveTools(agentName, assembled.Config.ToolNames())

	var reply string
	var loopErr error
	r.sessions.WithSession(agentName, assembled.Config.SystemPrompt(), func(sess *core.Session) {
		sess.ReplaceSystemPrompt(assembled.Config.SystemPrompt())
		sess.Append(llm.Message{Role: llm.RoleUser, Content: userMessage})
		reply, loopErr = r.runRounds(ctx, agentName, sess, schemas)
	})
	if loopErr != nil {
		return "", loopErr
	}

	r.maybeCompact(ctx, agentName)
	return reply, nil
}

// runRounds drives provider turns against sess.History in place,
// stopping at the first assistant reply carrying no tool calls or
// after maxToolRounds turns. It assumes the caller already holds
// sess's session-store lock.
func (r *Runtime) runRounds(ctx context.Context, agentName string, sess *core.Session, schemas []llm.Tool) (string, error) {
	for round := 0; round < maxToolRounds; round++ {
		resp, err := r.chat(ctx, llm.ChatRequest{
			Model:    r.model,
			Messages: sess.History,
			Tools:    schemas,
		})
		if err != nil {
			return "", fmt.Errorf("runtime: chat turn for %q: %w", agentName, err)
		}

		assistant := llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls}
		sess.Append(assistant)
		r.metrics.recordRound(ctx, agentName, len(resp.ToolCalls))

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		for _, call := range resp.ToolCalls {
			result := r.registry.Dispatch(ctx, call)
			sess.Append(llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: call.ID})
		}
	}

	r.emit(core.DiagnosticRoundCapExceeded, agentName,
		fmt.Sprintf("exceeded %d tool-calling rounds without a final reply", maxToolRounds))
	r.metrics.recordRoundCapHit(ctx, agentName)

	return lastAssistantText(sess.History), nil
}

// lastAssistantText returns the content of the most recent assistant
// message in history, for the round-cap-exceeded case where the loop
// has no clean final reply to return.
func lastAssistantText(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}

// maybeCompact runs the two-turn compaction protocol when agentName's
// estimated history size has crossed 80% of the provider's declared
// context limit. It is a no-op otherwise, and leaves history untouched
// on any failure of either turn.
func (r *Runtime) maybeCompact(ctx context.Context, agentName string) {
	history := r.sessions.Snapshot(agentName)
	if len(history) == 0 {
		return
	}

	limit := llm.ContextLimitOf(r.provider)
	estimated := llm.EstimateTokensOf(r.provider, history)
	if float64(estimated) < 0.80*float64(limit) {
		return
	}

	ctx, span := r.tracer.Start(ctx, "runtime.compact")
	defer span.End()

	flushSchemas, _ := r.resolveTools(agentName, []string{"remember"})

	var ok bool
	r.sessions.WithSession(agentName, "", func(sess *core.Session) {
		_, ok = r.runCompaction(ctx, agentName, sess, flushSchemas)
	})
	r.metrics.recordCompaction(ctx, agentName, ok)
	if !ok {
		r.emit(core.DiagnosticCompactionFailed, agentName, "compaction aborted, history left untouched")
	}
}

// runCompaction performs the flush turn (remember-only tool access,
// its messages never retained) followed by the summarize turn
// (no-tool), replacing history with [system, assistant(summary)] on
// success. It assumes the caller holds sess's session-store lock.
func (r *Runtime) runCompaction(ctx context.Context, agentName string, sess *core.Session, flushSchemas []llm.Tool) (string, bool) {
	systemMsg := sess.History[0]

	flushHistory := append(append([]llm.Message(nil), sess.History...), llm.Message{
		Role: llm.RoleUser, Content: r.hook.Flush(),
	})
	flushResp, err := r.chat(ctx, llm.ChatRequest{
		Model:    r.model,
		Messages: flushHistory,
		Tools:    flushSchemas,
	})
	if err != nil {
		return "", false
	}
	for _, call := range flushResp.ToolCalls {
		if call.Function.Name != "remember" {
			continue
		}
		r.registry.Dispatch(ctx, call)
	}

	summarizeHistory := append(append([]llm.Message(nil), sess.History...), llm.Message{
		Role: llm.RoleUser, Content: r.hook.Compact(),
	})
	summaryResp, err := r.chat(ctx, llm.ChatRequest{
		Model:    r.model,
		Messages: summarizeHistory,
	})
	if err != nil {
		return "", false
	}

	sess.ReplaceHistory([]llm.Message{
		systemMsg,
		{Role: llm.RoleAssistant, Content: summaryResp.Content},
	})
	return summaryResp.Content, true
}
