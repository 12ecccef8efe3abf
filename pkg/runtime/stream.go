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

// separatorChunk is yielded between rounds so the previous round's
// text never visually runs into the next round's.
func separatorChunk() llm.StreamChunk {
	return llm.StreamChunk{Content: "\n"}
}

// StreamTo is the streaming counterpart to SendTo: it drives the same
// round/tool-dispatch state machine, but through the provider's
// StreamingProvider interface, forwarding text as it arrives on the
// returned channel. The channel is closed when the loop exits, an
// error occurs, or ctx is cancelled. Cancelling ctx aborts the current
// round and appends nothing to the session for that round.
func (r *Runtime) StreamTo(ctx context.Context, agentName, userMessage string) (<-chan llm.StreamChunk, error) {
	streamer, ok := r.provider.(llm.StreamingProvider)
	if !ok {
		return nil, fmt.Errorf("runtime: provider does not implement StreamingProvider")
	}

	cfg, err := r.agentConfig(agentName)
	if err != nil {
		return nil, err
	}

	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := r.tracer.Start(ctx, "runtime.stream_to", trace.WithAttributes(
		attribute.String("agent", agentName),
		attribute.String("run_id", runID),
	))

	assembled := r.assembler().Assemble(ctx, cfg, r.currentMemory(), userMessage)
	schemas, _ := r.resolveTools(agentName, assembled.Config.ToolNames())

	out := make(chan llm.StreamChunk, 16)
	go func() {
		defer span.End()
		defer close(out)
		completed := r.streamRounds(ctx, streamer, agentName, assembled.Config.SystemPrompt(), userMessage, schemas, out)
		if completed {
			r.maybeCompact(ctx, agentName)
		}
	}()

	return out, nil
}

// streamRounds owns the session lock for the whole multi-round
// exchange, exactly as the non-streaming loop does for a single
// SendTo call, so a concurrent send_to to the same agent can't
// interleave with an in-flight stream. It reports whether the loop
// reached a clean exit (as opposed to cancellation or a provider
// error), which gates whether compaction runs afterward.
func (r *Runtime) streamRounds(ctx context.Context, streamer llm.StreamingProvider, agentName, systemPrompt, userMessage string, schemas []llm.Tool, out chan<- llm.StreamChunk) bool {
	completed := false
	r.sessions.WithSession(agentName, systemPrompt, func(sess *core.Session) {
		sess.ReplaceSystemPrompt(systemPrompt)
		sess.Append(llm.Message{Role: llm.RoleUser, Content: userMessage})

		for round := 0; round < maxToolRounds; round++ {
			if ctx.Err() != nil {
				return
			}
			if round > 0 {
				select {
				case out <- separatorChunk():
				case <-ctx.Done():
					return
				}
			}

			assistant, cancelled := r.streamOneRound(ctx, streamer, sess.History, schemas, out)
			if cancelled {
				return
			}
			sess.Append(assistant)
			r.metrics.recordRound(ctx, agentName, len(assistant.ToolCalls))

			if len(assistant.ToolCalls) == 0 {
				completed = true
				return
			}

			for _, call := range assistant.ToolCalls {
				result := r.registry.Dispatch(ctx, call)
				sess.Append(llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: call.ID})
			}
		}

		r.emit(core.DiagnosticRoundCapExceeded, agentName,
			fmt.Sprintf("exceeded %d tool-calling rounds without a final reply", maxToolRounds))
		r.metrics.recordRoundCapHit(ctx, agentName)
		completed = true
	})
	return completed
}

// streamOneRound drains a single provider turn, forwarding text
// chunks to out and accumulating the final assistant message. This
// provider abstraction delivers a round's tool calls whole on its
// final StreamChunk rather than as incremental argument fragments, so
// reconstruction is just concatenating text deltas and keeping the
// finish chunk's ToolCalls. It reports cancelled=true if ctx was
// cancelled before the round's finish chunk arrived, in which case
// the partial assistant message must not be appended.
func (r *Runtime) streamOneRound(ctx context.Context, streamer llm.StreamingProvider, history []llm.Message, schemas []llm.Tool, out chan<- llm.StreamChunk) (llm.Message, bool) {
	chunks, err := r.chatStream(ctx, streamer, llm.ChatRequest{
		Model:    r.model,
		Messages: history,
		Tools:    schemas,
	})
	if err != nil {
		return llm.Message{}, true
	}

	var text string
	var toolCalls []llm.ToolCall
	for {
		select {
		case <-ctx.Done():
			return llm.Message{}, true
		case chunk, ok := <-chunks:
			if !ok {
				return llm.Message{Role: llm.RoleAssistant, Content: text, ToolCalls: toolCalls}, false
			}
			if chunk.Error != nil {
				return llm.Message{}, true
			}
			if chunk.Content != "" {
				text += chunk.Content
			}
			if chunk.Done && len(chunk.ToolCalls) > 0 {
				toolCalls = chunk.ToolCalls
			}
			// Forward anything the consumer can observe: text, a
			// tool-call delta, or the round's Finish marker. A chunk
			// carrying none of those (a bare keepalive) is dropped.
			if chunk.Content != "" || len(chunk.ToolCalls) > 0 || chunk.Done {
				select {
				case out <- chunk:
				case <-ctx.Done():
					return llm.Message{}, true
				}
			}
			if chunk.Done {
				return llm.Message{Role: llm.RoleAssistant, Content: text, ToolCalls: toolCalls}, false
			}
		}
	}
}
