// SPDX-License-Identifier: Apache-2.0
package memory

import (
	"context"

	"github.com/loomkit/loom/pkg/core"
	"github.com/loomkit/loom/pkg/memory/sqlite"
)

// DurableStore is the persistence seam a durable Adapter writes
// through to. *sqlite.Store satisfies it.
type DurableStore interface {
	Load(ctx context.Context) ([]core.MemoryEntry, error)
	Save(ctx context.Context, entry core.MemoryEntry) error
	Delete(ctx context.Context, key string) error
}

// DurableAdapter wraps an in-process Adapter with a DurableStore:
// every write goes through to the store, and entries are replayed into
// the in-process index once at construction. Recall, lexical
// indexing, and vector fusion are entirely delegated to the wrapped
// Adapter.
type DurableAdapter struct {
	*Adapter
	backing DurableStore
}

var _ core.Memory = (*DurableAdapter)(nil)

// NewDurable opens backing, replays its rows into a fresh in-process
// Adapter built from opts, and returns the combined adapter.
func NewDurable(ctx context.Context, backing DurableStore, opts ...AdapterOption) (*DurableAdapter, error) {
	inner := New(opts...)
	entries, err := backing.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := inner.Store(ctx, e); err != nil {
			return nil, err
		}
	}
	return &DurableAdapter{Adapter: inner, backing: backing}, nil
}

// OpenDurableSQLite is a convenience constructor wiring a sqlite-backed
// DurableStore at path.
func OpenDurableSQLite(ctx context.Context, path string, opts ...AdapterOption) (*DurableAdapter, error) {
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	adapter, err := NewDurable(ctx, store, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	return adapter, nil
}

func (d *DurableAdapter) Set(ctx context.Context, key, value string) error {
	return d.Store(ctx, core.MemoryEntry{Key: key, Value: value})
}

func (d *DurableAdapter) Store(ctx context.Context, entry core.MemoryEntry) error {
	if err := d.Adapter.Store(ctx, entry); err != nil {
		return err
	}
	stored, _, err := d.entrySnapshot(ctx, entry.Key)
	if err != nil {
		return err
	}
	return d.backing.Save(ctx, stored)
}

func (d *DurableAdapter) Remove(ctx context.Context, key string) error {
	if err := d.Adapter.Remove(ctx, key); err != nil {
		return err
	}
	return d.backing.Delete(ctx, key)
}

func (d *DurableAdapter) entrySnapshot(ctx context.Context, key string) (core.MemoryEntry, bool, error) {
	entries, err := d.Entries(ctx)
	if err != nil {
		return core.MemoryEntry{}, false, err
	}
	for _, e := range entries {
		if e.Key == key {
			return e, true, nil
		}
	}
	return core.MemoryEntry{}, false, nil
}
