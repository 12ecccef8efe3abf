// SPDX-License-Identifier: Apache-2.0
// Package prompt implements the Prompt Assembler: per-request
// composition of an agent's base system prompt with a recalled-memory
// block and matched skill bodies.
package prompt

import (
	"context"
	"log/slog"
	"strings"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/skills"
)

// Assembler builds a transient AgentConfig clone for a single request,
// never mutating the registered base config.
type Assembler struct {
	skillRegistry *skills.Registry
	logger        *slog.Logger
}

// New returns an Assembler backed by skillRegistry, which may be nil
// if no skills are configured.
func New(skillRegistry *skills.Registry) *Assembler {
	return &Assembler{skillRegistry: skillRegistry, logger: slog.Default()}
}

// Result is the assembled per-request config plus the skills selected
// for it, so the caller can fold their tool names into the effective
// tool list.
type Result struct {
	Config        *core.AgentConfig
	MatchedSkills []skills.Skill
}

// Assemble builds the per-request system prompt for base given
// userMessage, injecting a memory block (if mem is non-nil and yields
// one) and the bodies of every matched skill, in rank order.
func (a *Assembler) Assemble(ctx context.Context, base *core.AgentConfig, mem core.Memory, userMessage string) Result {
	var b strings.Builder
	b.WriteString(base.SystemPrompt())

	if mem != nil {
		block, err := mem.CompileRelevant(ctx, userMessage)
		if err != nil {
			a.logger.Warn("prompt.memory_block_failed", slog.String("error", err.Error()))
		} else if block != "" {
			b.WriteString("\n")
			b.WriteString(block)
		}
	}

	matched := a.matchSkills(base, userMessage)
	for _, skill := range matched {
		b.WriteString("\n")
		b.WriteString(skill.Body)
	}

	toolNames := append([]string(nil), base.ToolNames()...)
	for _, skill := range matched {
		toolNames = append(toolNames, skill.AllowedTools...)
	}

	return Result{
		Config:        base.Clone(b.String(), toolNames),
		MatchedSkills: matched,
	}
}

func (a *Assembler) matchSkills(base *core.AgentConfig, userMessage string) []skills.Skill {
	if a.skillRegistry == nil {
		return nil
	}
	byTag := a.skillRegistry.FindByTags(base.SkillTags())
	byTrigger := a.skillRegistry.FindByTrigger(userMessage)
	return skills.Union(byTag, byTrigger)
}
