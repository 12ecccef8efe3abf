// SPDX-License-Identifier: Apache-2.0
package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/loomkit/loom/pkg/core"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	entry := core.MemoryEntry{Key: "k", Value: "v", CreatedAt: now, AccessedAt: now, AccessCount: 1}
	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Key != "k" || loaded[0].Value != "v" {
		t.Fatalf("unexpected loaded entries: %+v", loaded)
	}
}

func TestSaveUpsertsByKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	_ = store.Save(ctx, core.MemoryEntry{Key: "k", Value: "v1", CreatedAt: now, AccessedAt: now})
	_ = store.Save(ctx, core.MemoryEntry{Key: "k", Value: "v2", CreatedAt: now, AccessedAt: now})

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Value != "v2" {
		t.Fatalf("expected single upserted row with latest value, got %+v", loaded)
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now()
	_ = store.Save(ctx, core.MemoryEntry{Key: "k", Value: "v", CreatedAt: now, AccessedAt: now})
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no entries after delete, got %+v", loaded)
	}
}
