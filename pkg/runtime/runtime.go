// SPDX-License-Identifier: Apache-2.0
// Package runtime composes the Tool Registry, Session Store, Prompt
// Assembler, Memory Adapter, Skill Registry, and a language-model
// provider into the agent execution runtime: send_to, stream_to, and
// team composition.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomkit/loom/pkg/connectors"
	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
	"github.com/loomkit/loom/pkg/mcp"
	"github.com/loomkit/loom/pkg/prompt"
	"github.com/loomkit/loom/pkg/registry"
	"github.com/loomkit/loom/pkg/resilience"
	"github.com/loomkit/loom/pkg/session"
	"github.com/loomkit/loom/pkg/skills"
)

// defaultProviderTimeout bounds a single provider round trip (one Chat
// call or the establishment of one ChatStream). It is generous because
// tool-bearing turns can involve the provider doing its own multi-step
// reasoning server-side.
const defaultProviderTimeout = 90 * time.Second

// maxToolRounds is the hard cap on provider turns a single send_to or
// stream_to performs. Not configurable: a runaway tool-calling loop is
// a bug, not a tuning knob.
const maxToolRounds = 16

// Runtime is the agent execution environment: one provider, one tool
// registry, one session store, shared across every registered agent.
// All state is owned by the Runtime value; multiple Runtimes may
// coexist in a process.
type Runtime struct {
	provider llm.Provider
	model    string
	registry *registry.Registry
	sessions *session.Store
	hook     Hook

	diagnostics core.DiagnosticSink
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *runtimeMetrics

	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
	timeout resilience.TimeoutConfig

	agentsMu sync.RWMutex
	agents   map[string]*core.AgentConfig

	memMu  sync.RWMutex
	memory core.Memory

	skillsMu sync.RWMutex
	skillReg *skills.Registry

	bridgeMu sync.Mutex
	bridge   *mcp.Bridge
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithModel sets the model identifier sent on every provider request.
// Most providers in this codebase are already bound to a model at
// construction and ignore an empty ChatRequest.Model; this is for
// providers that branch on it (the Ollama and DashScope HTTP clients).
func WithModel(model string) Option {
	return func(r *Runtime) { r.model = model }
}

// WithMemory attaches a Memory backend and auto-registers the
// "remember" tool, per the Tool Registry's invariant that a memory
// adapter implies a remember tool.
func WithMemory(mem core.Memory) Option {
	return func(r *Runtime) { r.SetMemory(mem) }
}

// WithSkills attaches a Skill Registry the Prompt Assembler consults.
func WithSkills(reg *skills.Registry) Option {
	return func(r *Runtime) { r.SetSkills(reg) }
}

// WithHook overrides the default flush/compact prompts.
func WithHook(h Hook) Option {
	return func(r *Runtime) { r.hook = h }
}

// WithDiagnostics routes out-of-band diagnostics (round-cap-exceeded,
// compaction failures, memory errors) to sink instead of discarding
// them.
func WithDiagnostics(sink core.DiagnosticSink) Option {
	return func(r *Runtime) { r.diagnostics = sink }
}

// WithLogger overrides the default slog.Logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRetry overrides the retry policy wrapping every provider round
// trip. The default is resilience.DefaultRetryConfig().
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(r *Runtime) { r.retry = cfg }
}

// WithCircuitBreaker overrides the circuit breaker guarding the
// provider. The default trips after 5 consecutive failures and probes
// again after 30s.
func WithCircuitBreaker(cfg resilience.CircuitBreakerConfig) Option {
	return func(r *Runtime) { r.breaker = resilience.NewCircuitBreaker(cfg) }
}

// WithProviderTimeout bounds a single Chat call or ChatStream
// establishment. The default is defaultProviderTimeout.
func WithProviderTimeout(d time.Duration) Option {
	return func(r *Runtime) { r.timeout = resilience.TimeoutConfig{Duration: d, ErrorOnTimeout: true} }
}

// New builds a Runtime over provider with no agents, tools, memory, or
// skills registered yet.
func New(provider llm.Provider, opts ...Option) *Runtime {
	r := &Runtime{
		provider:    provider,
		registry:    registry.New(),
		sessions:    session.New(),
		hook:        DefaultHook{},
		diagnostics: core.NoopDiagnosticSink{},
		logger:      slog.Default().With(slog.String("component", "loom.runtime")),
		tracer:      otel.Tracer("loom/runtime"),
		metrics:     newRuntimeMetrics(),
		agents:      make(map[string]*core.AgentConfig),
		retry:       resilience.DefaultRetryConfig(),
		breaker:     resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "loom.provider"}),
		timeout:     resilience.TimeoutConfig{Duration: defaultProviderTimeout, ErrorOnTimeout: true},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterTool registers a core.Tool under schema def, adapting its
// Call method into the registry's native Handler shape. This is the
// seam connectors, skills, and the MCP bridge all register through.
func (r *Runtime) RegisterTool(tool core.Tool, def llm.Tool) {
	r.registry.RegisterTool(tool, def)
}

// RegisterHandler registers a bare (schema, handler) pair directly,
// for callers that already have a core.Handler rather than a
// core.Tool.
func (r *Runtime) RegisterHandler(def llm.Tool, handler core.Handler) {
	r.registry.Register(def, handler)
}

// RegisterConnectorTools registers every tool a Connector exposes on
// the runtime's Tool Registry. Connector tools are required to be
// core.Definable (the connector packages all wrap their tools in an
// adapter that is); a tool that isn't is skipped with a diagnostic
// rather than failing the whole batch, since a single malformed
// connector tool shouldn't keep the rest of a database or API surface
// from registering.
func (r *Runtime) RegisterConnectorTools(conn connectors.Connector) {
	for _, tool := range conn.Tools() {
		definable, ok := tool.(core.Definable)
		if !ok {
			r.emit(core.DiagnosticUnknownTool, tool.Name(), "connector tool has no schema, skipped")
			continue
		}
		r.RegisterTool(tool, definable.ToolDefinition())
	}
}

// RegisterAgent adds cfg to the set of agents this runtime can drive.
// Registering under an existing name replaces the prior config; the
// session store is untouched, so in-flight history survives a
// re-registration.
func (r *Runtime) RegisterAgent(cfg *core.AgentConfig) {
	r.agentsMu.Lock()
	defer r.agentsMu.Unlock()
	r.agents[cfg.Name()] = cfg
}

func (r *Runtime) agentConfig(name string) (*core.AgentConfig, error) {
	r.agentsMu.RLock()
	defer r.agentsMu.RUnlock()
	cfg, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("runtime: no agent registered as %q", name)
	}
	return cfg, nil
}

// SetMemory attaches mem as the runtime's Memory Adapter and
// auto-registers the "remember" tool against it, replacing any prior
// memory backend and its remember registration.
func (r *Runtime) SetMemory(mem core.Memory) {
	r.memMu.Lock()
	r.memory = mem
	r.memMu.Unlock()
	if mem != nil {
		registry.RegisterRememberTool(r.registry, mem)
	}
}

func (r *Runtime) currentMemory() core.Memory {
	r.memMu.RLock()
	defer r.memMu.RUnlock()
	return r.memory
}

// SetSkills replaces the runtime's Skill Registry. Passing nil
// disables skill matching entirely.
func (r *Runtime) SetSkills(reg *skills.Registry) {
	r.skillsMu.Lock()
	defer r.skillsMu.Unlock()
	r.skillReg = reg
}

func (r *Runtime) currentSkills() *skills.Registry {
	r.skillsMu.RLock()
	defer r.skillsMu.RUnlock()
	return r.skillReg
}

// ClearSession drops agentName's conversation history, keeping its
// seeded system message.
func (r *Runtime) ClearSession(agentName string) {
	r.sessions.Clear(agentName)
}

// MCPBridge returns the runtime's External Tool Bridge, creating it on
// first use.
func (r *Runtime) MCPBridge() *mcp.Bridge {
	r.bridgeMu.Lock()
	defer r.bridgeMu.Unlock()
	if r.bridge == nil {
		r.bridge = mcp.NewBridge()
	}
	return r.bridge
}

// ConnectMCP spawns command as a stdio MCP peer under name and
// registers all of its tools on the runtime's Tool Registry.
func (r *Runtime) ConnectMCP(ctx context.Context, name, command string, args []string, env map[string]string) error {
	bridge := r.MCPBridge()
	if err := bridge.ConnectStdio(name, command, args, env); err != nil {
		return err
	}
	return bridge.RegisterMCPTools(ctx, r.registry)
}

// ConnectMCPHTTP connects to a Streamable HTTP MCP peer under name and
// registers all of its tools on the runtime's Tool Registry.
func (r *Runtime) ConnectMCPHTTP(ctx context.Context, name, url string) error {
	bridge := r.MCPBridge()
	if err := bridge.ConnectStreamableHTTP(name, url); err != nil {
		return err
	}
	return bridge.RegisterMCPTools(ctx, r.registry)
}

func (r *Runtime) emit(kind core.DiagnosticKind, agentName, message string) {
	r.diagnostics.Emit(core.NewDiagnostic(kind, agentName, message))
}

// resolveTools resolves cfg's static tool names plus every
// matched skill's allowed tools, warning (via diagnostics) about any
// name the registry doesn't recognize.
func (r *Runtime) resolveTools(agentName string, toolNames []string) ([]llm.Tool, []registry.ResolvedTool) {
	resolved, warnings := r.registry.ResolveTools(toolNames)
	for _, w := range warnings {
		r.emit(core.DiagnosticUnknownTool, agentName, w)
	}
	schemas := make([]llm.Tool, len(resolved))
	for i, rt := range resolved {
		schemas[i] = rt.Tool
	}
	return schemas, resolved
}

func (r *Runtime) assembler() *prompt.Assembler {
	return prompt.New(r.currentSkills())
}
