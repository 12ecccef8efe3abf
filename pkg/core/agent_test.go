// SPDX-License-Identifier: Apache-2.0
package core

import "testing"

func TestNewAgentConfig(t *testing.T) {
	cfg := NewAgentConfig("clock",
		WithDescription("tells time"),
		WithSystemPrompt("reply OK"),
		WithTools("now", "browser_*"),
		WithSkillTags("time", "utility"),
	)

	if cfg.Name() != "clock" {
		t.Errorf("expected name clock, got %q", cfg.Name())
	}
	if cfg.Description() != "tells time" {
		t.Errorf("unexpected description %q", cfg.Description())
	}
	if cfg.SystemPrompt() != "reply OK" {
		t.Errorf("unexpected system prompt %q", cfg.SystemPrompt())
	}
	if len(cfg.ToolNames()) != 2 || cfg.ToolNames()[1] != "browser_*" {
		t.Errorf("unexpected tool names %v", cfg.ToolNames())
	}
	if len(cfg.SkillTags()) != 2 {
		t.Errorf("unexpected skill tags %v", cfg.SkillTags())
	}
}

func TestAgentConfigCloneDoesNotMutateOriginal(t *testing.T) {
	base := NewAgentConfig("echo", WithSystemPrompt("base"), WithTools("a"))

	clone := base.Clone("base\n<memory>x</memory>", []string{"a", "b"})

	if base.SystemPrompt() != "base" {
		t.Errorf("base prompt mutated: %q", base.SystemPrompt())
	}
	if len(base.ToolNames()) != 1 {
		t.Errorf("base tool names mutated: %v", base.ToolNames())
	}
	if clone.SystemPrompt() == base.SystemPrompt() {
		t.Errorf("clone should differ from base")
	}
	if len(clone.ToolNames()) != 2 {
		t.Errorf("unexpected clone tool names %v", clone.ToolNames())
	}
	if clone.Name() != base.Name() {
		t.Errorf("clone should keep the original name")
	}
}
