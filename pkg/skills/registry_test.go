// Copyright 2026 © The loom Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import "testing"

func TestFindByTagsReturnsUnion(t *testing.T) {
	r := NewRegistry()
	r.Add(Skill{Name: "pdf", Tags: []string{"documents"}})
	r.Add(Skill{Name: "ocr", Tags: []string{"images", "documents"}})
	r.Add(Skill{Name: "chess", Tags: []string{"games"}})

	matched := r.FindByTags([]string{"documents"})
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
}

func TestFindByTriggerWordBoundary(t *testing.T) {
	r := NewRegistry()
	r.Add(Skill{Name: "pdf", Triggers: []string{"pdf"}})

	if matched := r.FindByTrigger("please process this PDF file"); len(matched) != 1 {
		t.Fatalf("expected case-insensitive word match, got %d", len(matched))
	}
	if matched := r.FindByTrigger("pdfs are great"); len(matched) != 0 {
		t.Fatalf("expected no match on substring without word boundary, got %d", len(matched))
	}
}

func TestRankOrdersByTierThenPriorityThenName(t *testing.T) {
	input := []Skill{
		{Name: "z-bundled", Tier: TierBundled, Priority: 100},
		{Name: "a-workspace", Tier: TierWorkspace, Priority: 0},
		{Name: "b-workspace", Tier: TierWorkspace, Priority: 0},
		{Name: "managed-high", Tier: TierManaged, Priority: 5},
		{Name: "managed-low", Tier: TierManaged, Priority: 1},
	}

	ranked := Rank(input)
	names := make([]string, len(ranked))
	for i, s := range ranked {
		names[i] = s.Name
	}

	expected := []string{"a-workspace", "b-workspace", "managed-high", "managed-low", "z-bundled"}
	for i, name := range expected {
		if names[i] != name {
			t.Fatalf("expected order %v, got %v", expected, names)
		}
	}
}

func TestUnionDeduplicatesPreservingFirstThenReranks(t *testing.T) {
	tagMatches := []Skill{{Name: "pdf", Tier: TierManaged}}
	triggerMatches := []Skill{{Name: "pdf", Tier: TierManaged}, {Name: "ocr", Tier: TierWorkspace}}

	merged := Union(tagMatches, triggerMatches)
	if len(merged) != 2 {
		t.Fatalf("expected 2 unique skills, got %d", len(merged))
	}
	if merged[0].Name != "ocr" {
		t.Errorf("expected workspace tier ranked first, got %v", merged)
	}
}
