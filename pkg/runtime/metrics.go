// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// runtimeMetrics are the otel counters emitted around the execution,
// streaming, and compaction loops.
type runtimeMetrics struct {
	rounds       metric.Int64Counter
	toolCalls    metric.Int64Counter
	compactions  metric.Int64Counter
	roundCapHits metric.Int64Counter
}

// newRuntimeMetrics builds the counters against the "loom/runtime"
// meter. Any registration error degrades to a nil-safe no-op value
// rather than failing Runtime construction, since metrics are best
// effort.
func newRuntimeMetrics() *runtimeMetrics {
	meter := otel.Meter("loom/runtime")

	rounds, _ := meter.Int64Counter("loom.runtime.rounds",
		metric.WithDescription("Provider turns taken by the execution and streaming loops"))
	toolCalls, _ := meter.Int64Counter("loom.runtime.tool_calls",
		metric.WithDescription("Tool calls dispatched by the execution and streaming loops"))
	compactions, _ := meter.Int64Counter("loom.runtime.compactions",
		metric.WithDescription("Compaction protocol runs, labeled by outcome"))
	roundCapHits, _ := meter.Int64Counter("loom.runtime.round_cap_hits",
		metric.WithDescription("send_to/stream_to calls that exhausted the round cap"))

	return &runtimeMetrics{
		rounds:       rounds,
		toolCalls:    toolCalls,
		compactions:  compactions,
		roundCapHits: roundCapHits,
	}
}

func (m *runtimeMetrics) recordRound(ctx context.Context, agentName string, toolCallCount int) {
	if m == nil || m.rounds == nil {
		return
	}
	m.rounds.Add(ctx, 1, metric.WithAttributes(attribute.String("agent", agentName)))
	if toolCallCount > 0 {
		m.toolCalls.Add(ctx, int64(toolCallCount), metric.WithAttributes(attribute.String("agent", agentName)))
	}
}

func (m *runtimeMetrics) recordRoundCapHit(ctx context.Context, agentName string) {
	if m == nil || m.roundCapHits == nil {
		return
	}
	m.roundCapHits.Add(ctx, 1, metric.WithAttributes(attribute.String("agent", agentName)))
}

func (m *runtimeMetrics) recordCompaction(ctx context.Context, agentName string, ok bool) {
	if m == nil || m.compactions == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.compactions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent", agentName),
		attribute.String("outcome", outcome),
	))
}
