// SPDX-License-Identifier: Apache-2.0
package core

// AgentConfig describes a registered agent. It is immutable once built:
// Clone is the only sanctioned way to derive a per-request variant (the
// prompt assembler uses it to inject memory and skill blocks without
// mutating the registered config).
type AgentConfig struct {
	name         string
	description  string
	systemPrompt string
	toolNames    []string
	skillTags    []string
}

// AgentOption configures an AgentConfig at construction time.
type AgentOption func(*AgentConfig)

// NewAgentConfig builds an AgentConfig from the given name and options.
func NewAgentConfig(name string, opts ...AgentOption) *AgentConfig {
	cfg := &AgentConfig{name: name}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithDescription sets the agent's human-readable description.
func WithDescription(description string) AgentOption {
	return func(c *AgentConfig) { c.description = description }
}

// WithSystemPrompt sets the agent's base system prompt.
func WithSystemPrompt(prompt string) AgentOption {
	return func(c *AgentConfig) { c.systemPrompt = prompt }
}

// WithTools sets the agent's tool names, in order. Entries ending in
// "*" are glob prefixes resolved by the Tool Registry.
func WithTools(names ...string) AgentOption {
	return func(c *AgentConfig) { c.toolNames = append([]string(nil), names...) }
}

// WithSkillTags sets the tags used to select skills for this agent.
func WithSkillTags(tags ...string) AgentOption {
	return func(c *AgentConfig) { c.skillTags = append([]string(nil), tags...) }
}

func (c *AgentConfig) Name() string        { return c.name }
func (c *AgentConfig) Description() string { return c.description }
func (c *AgentConfig) SystemPrompt() string { return c.systemPrompt }
func (c *AgentConfig) ToolNames() []string  { return c.toolNames }
func (c *AgentConfig) SkillTags() []string  { return c.skillTags }

// Clone returns a copy of this config with a replaced system prompt and
// an effective tool list. The original is never mutated; the clone is
// meant to be discarded after a single request.
func (c *AgentConfig) Clone(systemPrompt string, toolNames []string) *AgentConfig {
	return &AgentConfig{
		name:         c.name,
		description:  c.description,
		systemPrompt: systemPrompt,
		toolNames:    toolNames,
		skillTags:    c.skillTags,
	}
}
