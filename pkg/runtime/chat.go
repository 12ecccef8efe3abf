// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"

	"github.com/loomkit/loom/pkg/llm"
	"github.com/loomkit/loom/pkg/resilience"
)

// chat is the single choke point every provider round trip in this
// package goes through: a timeout bounds one attempt, retry governs
// how many attempts a recoverable failure gets, and the circuit
// breaker stops hammering a provider that is already down. Provider
// I/O is the runtime's only network suspension point, so this is
// where resilience belongs rather than duplicated at each call site.
func (r *Runtime) chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	var resp *llm.ChatResponse
	err := r.breaker.Call(ctx, func() error {
		return r.retry.Do(ctx, func() error {
			return resilience.WithTimeout(ctx, r.timeout, func() error {
				var chatErr error
				resp, chatErr = r.provider.Chat(ctx, req)
				return chatErr
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// chatStream wraps establishing a streaming round the same way chat
// wraps a single-shot one. Only the handshake is retried; once the
// channel is open, streamOneRound owns draining it and a mid-stream
// failure surfaces as a StreamChunk.Error rather than a retry, since
// replaying an already-partially-consumed channel would duplicate
// text the caller has already seen.
func (r *Runtime) chatStream(ctx context.Context, streamer llm.StreamingProvider, req llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	var ch <-chan llm.StreamChunk
	err := r.breaker.Call(ctx, func() error {
		return r.retry.Do(ctx, func() error {
			return resilience.WithTimeout(ctx, r.timeout, func() error {
				var streamErr error
				ch, streamErr = streamer.ChatStream(ctx, req)
				return streamErr
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}
