// Copyright 2026 © The loom Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Registry holds a set of loaded skills, indexed by name; tag and
// trigger-keyword lookups scan every skill. Loading from disk is an external collaborator
// (LoadDir/LoadFile); the registry only ranks and selects what it is
// given.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Skill
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Skill)}
}

// Add inserts or replaces a skill by name.
func (r *Registry) Add(skill Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[skill.Name] = skill
}

// AddAll inserts every skill in skills.
func (r *Registry) AddAll(skillList []Skill) {
	for _, s := range skillList {
		r.Add(s)
	}
}

// Get returns a skill by exact name.
func (r *Registry) Get(name string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// FindByTags returns the union of skills carrying any of the given
// tags, ranked per Rank.
func (r *Registry) FindByTags(tags []string) []Skill {
	if len(tags) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(tags))
	for _, t := range tags {
		wanted[strings.ToLower(t)] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []Skill
	for _, s := range r.byName {
		for _, tag := range s.Tags {
			if wanted[strings.ToLower(tag)] {
				matched = append(matched, s)
				break
			}
		}
	}
	return Rank(matched)
}

// FindByTrigger returns skills whose trigger keywords appear in text
// as whole words, case-insensitively, ranked per Rank.
func (r *Registry) FindByTrigger(text string) []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []Skill
	for _, s := range r.byName {
		for _, trigger := range s.Triggers {
			if triggerMatches(trigger, text) {
				matched = append(matched, s)
				break
			}
		}
	}
	return Rank(matched)
}

func triggerMatches(trigger, text string) bool {
	if trigger == "" {
		return false
	}
	pattern := `(?i)\b` + regexp.QuoteMeta(trigger) + `\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// Rank sorts skills by (tier desc, priority desc, name asc), stably.
func Rank(skillList []Skill) []Skill {
	ranked := append([]Skill(nil), skillList...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Name < b.Name
	})
	return ranked
}

// Union merges skill sets by name, preserving first occurrence, then
// re-ranks the result.
func Union(sets ...[]Skill) []Skill {
	seen := make(map[string]bool)
	var out []Skill
	for _, set := range sets {
		for _, s := range set {
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			out = append(out, s)
		}
	}
	return Rank(out)
}
