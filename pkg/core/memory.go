// SPDX-License-Identifier: Apache-2.0
package core

import (
	"context"
	"time"
)

// MemoryEntry is one durable fact the runtime can recall. Keys are
// unique; a Store call upserts by key and preserves CreatedAt.
type MemoryEntry struct {
	Key         string
	Value       string
	Metadata    map[string]string
	CreatedAt   time.Time
	AccessedAt  time.Time
	AccessCount int
	Embedding   []float32
}

// RecallOptions narrows a Recall query.
type RecallOptions struct {
	Limit              int
	TimeRange          *TimeRange
	RelevanceThreshold float64
}

// TimeRange bounds a recall query by CreatedAt.
type TimeRange struct {
	Since time.Time
	Until time.Time
}

// Memory is the capability set the runtime consumes. The runtime
// treats memory polymorphically over this interface; backends decide
// how (or whether) to persist, embed, and rank.
type Memory interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Entries(ctx context.Context) ([]MemoryEntry, error)

	// Compile summarizes all entries into a single text blob.
	Compile(ctx context.Context) (string, error)

	// Store upserts a full entry, auto-embedding it if an Embedder is
	// attached to the backend.
	Store(ctx context.Context, entry MemoryEntry) error

	// Recall ranks entries against query per the fused BM25/vector/MMR
	// algorithm and returns them best-first.
	Recall(ctx context.Context, query string, opts RecallOptions) ([]MemoryEntry, error)

	// CompileRelevant wraps the top recalled entries (≈5) as <memory>
	// blocks for injection into the next provider turn.
	CompileRelevant(ctx context.Context, query string) (string, error)
}
