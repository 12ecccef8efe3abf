// SPDX-License-Identifier: Apache-2.0
package core

import (
	"testing"

	"github.com/loomkit/loom/pkg/llm"
)

func TestNewSessionSeedsSystemMessage(t *testing.T) {
	s := NewSession("echo", "reply OK")

	if len(s.History) != 1 || s.History[0].Role != llm.RoleSystem {
		t.Fatalf("expected seeded system message, got %v", s.History)
	}
	if s.History[0].Content != "reply OK" {
		t.Errorf("unexpected system content %q", s.History[0].Content)
	}
}

func TestSessionAppendPreservesOrder(t *testing.T) {
	s := NewSession("echo", "reply OK")
	s.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})
	s.Append(llm.Message{Role: llm.RoleAssistant, Content: "OK"})

	if len(s.History) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(s.History))
	}
	if s.History[1].Content != "hi" || s.History[2].Content != "OK" {
		t.Errorf("unexpected order: %v", s.History)
	}
}

func TestSessionReplaceSystemPromptInPlace(t *testing.T) {
	s := NewSession("echo", "old")
	s.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})

	s.ReplaceSystemPrompt("new")

	if len(s.History) != 2 {
		t.Fatalf("expected history length unchanged, got %d", len(s.History))
	}
	if s.History[0].Content != "new" {
		t.Errorf("expected system prompt replaced, got %q", s.History[0].Content)
	}
}

func TestSessionReplaceHistoryIncrementsCompactionCount(t *testing.T) {
	s := NewSession("echo", "sys")
	s.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})

	s.ReplaceHistory([]llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleAssistant, Content: "summary"},
	})

	if s.CompactionCount != 1 {
		t.Errorf("expected compaction count 1, got %d", s.CompactionCount)
	}
	if len(s.History) != 2 {
		t.Errorf("expected history length 2 after compaction, got %d", len(s.History))
	}
}

func TestSessionClearKeepsSystemMessage(t *testing.T) {
	s := NewSession("echo", "sys")
	s.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})
	s.Append(llm.Message{Role: llm.RoleAssistant, Content: "OK"})

	s.Clear()

	if len(s.History) != 1 || s.History[0].Role != llm.RoleSystem {
		t.Fatalf("expected only system message after clear, got %v", s.History)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := NewSession("echo", "sys")
	clone := s.Clone()
	s.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})

	if len(clone.History) != 1 {
		t.Errorf("expected clone unaffected by later append, got %v", clone.History)
	}
}
