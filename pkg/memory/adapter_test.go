// SPDX-License-Identifier: Apache-2.0
package memory

import (
	"context"
	"testing"

	"github.com/loomkit/loom/pkg/core"
)

func TestAdapterGetSetRoundTrip(t *testing.T) {
	a := New()
	if err := a.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := a.Get(context.Background(), "k")
	if err != nil || !ok || value != "v" {
		t.Fatalf("expected k=v, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestAdapterStorePreservesCreatedAtAcrossUpdates(t *testing.T) {
	a := New()
	ctx := context.Background()
	if err := a.Store(ctx, core.MemoryEntry{Key: "k", Value: "v1"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	entries, _ := a.Entries(ctx)
	firstCreated := entries[0].CreatedAt

	if err := a.Store(ctx, core.MemoryEntry{Key: "k", Value: "v2"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	entries, _ = a.Entries(ctx)
	if !entries[0].CreatedAt.Equal(firstCreated) {
		t.Errorf("expected CreatedAt preserved across update, got %v vs %v", entries[0].CreatedAt, firstCreated)
	}
	if entries[0].Value != "v2" {
		t.Errorf("expected updated value, got %q", entries[0].Value)
	}
}

func TestAdapterRecallNoEmbedderFallsBackToLexical(t *testing.T) {
	a := New()
	ctx := context.Background()
	_ = a.Store(ctx, core.MemoryEntry{Key: "favorite-color", Value: "the user's favorite color is blue"})
	_ = a.Store(ctx, core.MemoryEntry{Key: "favorite-food", Value: "the user's favorite food is pizza"})
	_ = a.Store(ctx, core.MemoryEntry{Key: "unrelated", Value: "paris is the capital of france"})

	results, err := a.Recall(ctx, "favorite color", core.RecallOptions{Limit: 10})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Key != "favorite-color" {
		t.Errorf("expected favorite-color ranked first, got %q", results[0].Key)
	}
}

func TestAdapterRecallRespectsLimit(t *testing.T) {
	a := New()
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		_ = a.Store(ctx, core.MemoryEntry{Key: key, Value: "apple banana cherry " + key})
	}
	results, err := a.Recall(ctx, "apple banana cherry", core.RecallOptions{Limit: 2})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(results))
	}
}

func TestAdapterCompileRelevantWrapsMemoryBlocks(t *testing.T) {
	a := New()
	ctx := context.Background()
	_ = a.Store(ctx, core.MemoryEntry{Key: "k", Value: "the sky is blue"})

	blob, err := a.CompileRelevant(ctx, "sky")
	if err != nil {
		t.Fatalf("compile relevant: %v", err)
	}
	if blob == "" {
		t.Fatal("expected non-empty memory block")
	}
}

func TestAdapterCompileRelevantEmptyWhenNoMatch(t *testing.T) {
	a := New()
	blob, err := a.CompileRelevant(context.Background(), "anything")
	if err != nil {
		t.Fatalf("compile relevant: %v", err)
	}
	if blob != "" {
		t.Errorf("expected empty blob for empty memory, got %q", blob)
	}
}

type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func TestAdapterRecallWithEmbedderDoesNotLoseLexicalTopResult(t *testing.T) {
	ctx := context.Background()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"the user's favorite color is blue": {1, 0, 0},
		"favorite color":                    {1, 0, 0},
		"paris is the capital of france":    {0, 1, 0},
	}}

	withoutEmbedder := New()
	_ = withoutEmbedder.Store(ctx, core.MemoryEntry{Key: "favorite-color", Value: "the user's favorite color is blue"})
	_ = withoutEmbedder.Store(ctx, core.MemoryEntry{Key: "unrelated", Value: "paris is the capital of france"})
	baseline, err := withoutEmbedder.Recall(ctx, "favorite color", core.RecallOptions{Limit: 10})
	if err != nil || len(baseline) == 0 {
		t.Fatalf("baseline recall failed: %v %v", baseline, err)
	}

	withEmbedder := New(WithEmbedder(embedder))
	_ = withEmbedder.Store(ctx, core.MemoryEntry{Key: "favorite-color", Value: "the user's favorite color is blue"})
	_ = withEmbedder.Store(ctx, core.MemoryEntry{Key: "unrelated", Value: "paris is the capital of france"})
	withVector, err := withEmbedder.Recall(ctx, "favorite color", core.RecallOptions{Limit: 10})
	if err != nil || len(withVector) == 0 {
		t.Fatalf("vector-augmented recall failed: %v %v", withVector, err)
	}

	if baseline[0].Key != withVector[0].Key {
		t.Errorf("expected top result unchanged by adding an embedder, got %q vs %q", baseline[0].Key, withVector[0].Key)
	}
}
