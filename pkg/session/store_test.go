// SPDX-License-Identifier: Apache-2.0
package session

import (
	"sync"
	"testing"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
)

func TestWithSessionCreatesLazily(t *testing.T) {
	s := New()
	var seenPrompt string
	s.WithSession("echo", "reply OK", func(sess *core.Session) {
		seenPrompt = sess.History[0].Content
	})
	if seenPrompt != "reply OK" {
		t.Errorf("expected lazy session seeded with system prompt, got %q", seenPrompt)
	}
}

func TestWithSessionReusesExistingSession(t *testing.T) {
	s := New()
	s.WithSession("echo", "reply OK", func(sess *core.Session) {
		sess.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})
	})
	s.WithSession("echo", "ignored on reuse", func(sess *core.Session) {
		if len(sess.History) != 2 {
			t.Fatalf("expected reused session with 2 messages, got %d", len(sess.History))
		}
	})
}

func TestDifferentAgentsDoNotShareSessions(t *testing.T) {
	s := New()
	s.WithSession("echo", "a", func(sess *core.Session) {
		sess.Append(llm.Message{Role: llm.RoleUser, Content: "for echo"})
	})
	s.WithSession("clock", "b", func(sess *core.Session) {
		if len(sess.History) != 1 {
			t.Fatalf("expected clock's own fresh session, got %d messages", len(sess.History))
		}
	})
}

func TestClearDropsNonSystemHistory(t *testing.T) {
	s := New()
	s.WithSession("echo", "sys", func(sess *core.Session) {
		sess.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})
	})
	s.Clear("echo")
	snap := s.Snapshot("echo")
	if len(snap) != 1 || snap[0].Role != llm.RoleSystem {
		t.Fatalf("expected only system message after clear, got %v", snap)
	}
}

func TestConcurrentAccessToDifferentAgentsDoesNotRace(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	agents := []string{"a", "b", "c", "d"}
	for _, agent := range agents {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.WithSession(name, "sys", func(sess *core.Session) {
					sess.Append(llm.Message{Role: llm.RoleUser, Content: "x"})
				})
			}
		}(agent)
	}
	wg.Wait()

	for _, agent := range agents {
		if got := len(s.Snapshot(agent)); got != 51 {
			t.Errorf("agent %s: expected 51 messages, got %d", agent, got)
		}
	}
}
