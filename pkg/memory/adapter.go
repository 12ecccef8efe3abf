// SPDX-License-Identifier: Apache-2.0
// Package memory implements the Memory Adapter contract the runtime
// consumes: a capability set over a lexical/vector/temporal recall
// pipeline, with interchangeable storage and embedding backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loomkit/loom/pkg/core"
)

// AdapterOption configures an Adapter at construction time.
type AdapterOption func(*Adapter)

// WithVectorStore attaches an external vector backend (e.g. Qdrant)
// for the vector half of recall once entries carry embeddings. Without
// one, the adapter falls back to a local brute-force cosine scan.
func WithVectorStore(store VectorStore, collection string) AdapterOption {
	return func(a *Adapter) {
		a.store = store
		a.collection = collection
	}
}

// WithEmbedder attaches an embedder used to compute embeddings for
// stored entries and queries. Without one, recall degrades to the
// BM25 -> temporal decay -> MMR-Jaccard path.
func WithEmbedder(embedder Embedder) AdapterOption {
	return func(a *Adapter) { a.embedder = embedder }
}

// Adapter is the default in-process Memory Adapter: entries and their
// optional embeddings live in memory, with an optional durable or
// vector-scale backend swapped in via options.
type Adapter struct {
	mu         sync.RWMutex
	entries    map[string]core.MemoryEntry
	embedder   Embedder
	store      VectorStore
	collection string
}

// New returns an empty in-process Adapter.
func New(opts ...AdapterOption) *Adapter {
	a := &Adapter{entries: make(map[string]core.MemoryEntry), collection: "memory"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ core.Memory = (*Adapter)(nil)

func (a *Adapter) Get(ctx context.Context, key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.entries[key]
	if !ok {
		return "", false, nil
	}
	entry.AccessedAt = time.Now()
	entry.AccessCount++
	a.entries[key] = entry
	return entry.Value, true, nil
}

func (a *Adapter) Set(ctx context.Context, key, value string) error {
	return a.Store(ctx, core.MemoryEntry{Key: key, Value: value})
}

func (a *Adapter) Remove(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, key)
	return nil
}

func (a *Adapter) Entries(ctx context.Context) ([]core.MemoryEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]core.MemoryEntry, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (a *Adapter) Compile(ctx context.Context) (string, error) {
	entries, _ := a.Entries(ctx)
	if len(entries) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %s\n", e.Key, e.Value)
	}
	return b.String(), nil
}

// Store upserts entry by key, preserving CreatedAt across updates and
// auto-embedding the value when an embedder is attached and the entry
// doesn't already carry an embedding.
func (a *Adapter) Store(ctx context.Context, entry core.MemoryEntry) error {
	now := time.Now()

	a.mu.Lock()
	if existing, ok := a.entries[entry.Key]; ok {
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.CreatedAt = now
	}
	entry.AccessedAt = now
	a.mu.Unlock()

	if a.embedder != nil && len(entry.Embedding) == 0 {
		vec, err := a.embedder.Embed(ctx, entry.Value)
		if err == nil {
			entry.Embedding = vec
		}
	}

	a.mu.Lock()
	a.entries[entry.Key] = entry
	a.mu.Unlock()

	if a.store != nil && len(entry.Embedding) > 0 {
		point := Point{
			ID:     vectorPointID(entry.Key),
			Vector: entry.Embedding,
			Payload: map[string]interface{}{
				"key":  entry.Key,
				"text": entry.Value,
			},
			Timestamp: now.Unix(),
		}
		_ = a.store.Upsert(ctx, a.collection, []Point{point})
	}

	return nil
}

// Recall implements the five-stage pipeline: BM25 with temporal decay
// and filtering, optional vector cosine, RRF fusion, MMR
// diversification, and truncation to opts.Limit (default 10).
func (a *Adapter) Recall(ctx context.Context, query string, opts core.RecallOptions) ([]core.MemoryEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	entries, _ := a.Entries(ctx)
	entries = filterByTimeRange(entries, opts.TimeRange)
	if len(entries) == 0 {
		return nil, nil
	}

	byKey := make(map[string]core.MemoryEntry, len(entries))
	docs := make([]scoredDoc, 0, len(entries))
	now := time.Now()
	for _, e := range entries {
		byKey[e.Key] = e
		docs = append(docs, scoredDoc{key: e.Key, text: e.Value})
	}

	lexical := bm25Scores(docs, query)
	for key, score := range lexical {
		lexical[key] = score * temporalDecay(byKey[key].AccessedAt, now)
	}
	if opts.RelevanceThreshold > 0 {
		for key, score := range lexical {
			if score < opts.RelevanceThreshold {
				delete(lexical, key)
			}
		}
	}
	lexicalRanked := rankByScoreDesc(lexical)

	var vectorRanked []string
	if a.embedder != nil {
		if queryVec, err := a.embedder.Embed(ctx, query); err == nil {
			vectorRanked = a.rankByVector(ctx, entries, queryVec)
		}
	}

	fused := rrfFuse(lexicalRanked, vectorRanked)
	if len(fused) == 0 {
		return nil, nil
	}
	candidates := rankByScoreDesc(fused)

	selected := mmrSelect(candidates, fused, limit, func(x, y string) float64 {
		ex, ey := byKey[x], byKey[y]
		if len(ex.Embedding) > 0 && len(ey.Embedding) > 0 {
			return cosineSimilarity(ex.Embedding, ey.Embedding)
		}
		return jaccardSimilarity(ex.Value, ey.Value)
	})

	out := make([]core.MemoryEntry, len(selected))
	for i, key := range selected {
		out[i] = byKey[key]
	}
	return out, nil
}

// rankByVector ranks entries by cosine similarity to queryVec, using
// the external VectorStore if configured, else a local brute-force
// scan over in-memory embeddings.
func (a *Adapter) rankByVector(ctx context.Context, entries []core.MemoryEntry, queryVec []float32) []string {
	if a.store != nil {
		results, err := a.store.Search(ctx, a.collection, queryVec, len(entries), 0)
		if err == nil {
			ranked := make([]string, 0, len(results))
			for _, r := range results {
				if key, ok := r.Point.Payload["key"].(string); ok {
					ranked = append(ranked, key)
				}
			}
			if len(ranked) > 0 {
				return ranked
			}
		}
	}

	scores := make(map[string]float64)
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			continue
		}
		scores[e.Key] = cosineSimilarity(e.Embedding, queryVec)
	}
	return rankByScoreDesc(scores)
}

// CompileRelevant wraps the top ~5 recalled entries as <memory> blocks
// for injection into the next provider turn.
func (a *Adapter) CompileRelevant(ctx context.Context, query string) (string, error) {
	entries, err := a.Recall(ctx, query, core.RecallOptions{Limit: 5})
	if err != nil || len(entries) == 0 {
		return "", err
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "<memory key=%q>%s</memory>\n", e.Key, e.Value)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func filterByTimeRange(entries []core.MemoryEntry, tr *core.TimeRange) []core.MemoryEntry {
	if tr == nil {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if !tr.Since.IsZero() && e.CreatedAt.Before(tr.Since) {
			continue
		}
		if !tr.Until.IsZero() && e.CreatedAt.After(tr.Until) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// vectorPointID derives a stable point id for a memory key. Qdrant
// point ids must be a UUID or unsigned integer; keys are neither, so
// we derive a deterministic (namespace, key) UUIDv3 that upserts to
// the same point every time a given key is stored again.
func vectorPointID(key string) string {
	return uuid.NewMD5(uuid.Nil, []byte(key)).String()
}
