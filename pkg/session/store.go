// SPDX-License-Identifier: Apache-2.0
// Package session implements the Session Store: a map from agent name
// to Session, with a per-agent lock so concurrent requests to different
// agents never contend.
package session

import (
	"sync"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/llm"
)

type slot struct {
	mu      sync.Mutex
	session *core.Session
}

// Store owns every agent's Session. A directory-level lock protects the
// map of slots; each slot's own lock serializes access to that agent's
// session so sessions for different agents never block each other.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

// New returns an empty Store.
func New() *Store {
	return &Store{slots: make(map[string]*slot)}
}

func (s *Store) slotFor(agentName string) *slot {
	s.mu.RLock()
	sl, ok := s.slots[agentName]
	s.mu.RUnlock()
	if ok {
		return sl
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok = s.slots[agentName]; ok {
		return sl
	}
	sl = &slot{}
	s.slots[agentName] = sl
	return sl
}

// WithSession runs fn against agentName's session under that agent's
// lock, creating the session (seeded with systemPrompt) if absent. It
// is the only way callers should touch a Session, to keep round
// boundaries atomic under concurrent access.
func (s *Store) WithSession(agentName, systemPrompt string, fn func(*core.Session)) {
	sl := s.slotFor(agentName)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.session == nil {
		sl.session = core.NewSession(agentName, systemPrompt)
	}
	fn(sl.session)
}

// Snapshot returns a deep-enough copy of agentName's session history for
// read-only use outside the lock (e.g. building a provider request).
func (s *Store) Snapshot(agentName string) []llm.Message {
	sl := s.slotFor(agentName)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.session == nil {
		return nil
	}
	return sl.session.Clone().History
}

// Clear drops all non-system history for agentName. A no-op if the
// agent has no session yet.
func (s *Store) Clear(agentName string) {
	sl := s.slotFor(agentName)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.session != nil {
		sl.session.Clear()
	}
}
