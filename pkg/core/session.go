// SPDX-License-Identifier: Apache-2.0
package core

import "github.com/loomkit/loom/pkg/llm"

// Session is one agent's conversation history. It is owned by the
// Session Store, keyed by AgentName; this type carries no locking of
// its own.
type Session struct {
	AgentName       string
	History         []llm.Message
	CompactionCount int
}

// NewSession seeds a session with a system message.
func NewSession(agentName, systemPrompt string) *Session {
	return &Session{
		AgentName: agentName,
		History: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
		},
	}
}

// Append adds a message to the history, preserving append order. Round
// pairing (assistant tool-calls followed by matching tool messages) is
// the caller's responsibility; Append itself does not validate it, to
// keep flush-turn and compaction bookkeeping cheap.
func (s *Session) Append(msg llm.Message) {
	s.History = append(s.History, msg)
}

// ReplaceSystemPrompt overwrites the leading system message in place,
// used by the Prompt Assembler to inject the per-request system prompt
// without disturbing the rest of the history.
func (s *Session) ReplaceSystemPrompt(prompt string) {
	if len(s.History) == 0 {
		s.History = []llm.Message{{Role: llm.RoleSystem, Content: prompt}}
		return
	}
	if s.History[0].Role == llm.RoleSystem {
		s.History[0].Content = prompt
		return
	}
	s.History = append([]llm.Message{{Role: llm.RoleSystem, Content: prompt}}, s.History...)
}

// ReplaceHistory overwrites the history wholesale (compaction only) and
// bumps CompactionCount.
func (s *Session) ReplaceHistory(history []llm.Message) {
	s.History = history
	s.CompactionCount++
}

// Clear drops all non-system history, keeping the leading system
// message if present.
func (s *Session) Clear() {
	if len(s.History) > 0 && s.History[0].Role == llm.RoleSystem {
		s.History = s.History[:1]
		return
	}
	s.History = nil
}

// Clone returns a deep-enough copy for a goroutine to read without
// racing a concurrent append (used by the Session Store's Snapshot to
// hand out history outside the agent's lock).
func (s *Session) Clone() *Session {
	history := make([]llm.Message, len(s.History))
	copy(history, s.History)
	return &Session{AgentName: s.AgentName, History: history, CompactionCount: s.CompactionCount}
}
