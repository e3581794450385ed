// Package docstore is a swappable, collection-oriented document store with
// optimistic-concurrency transactions. Reads inside a transaction establish a
// read-set; the commit applies staged writes only if no read-set member was
// modified by a concurrently committed transaction, retrying contention
// transparently with bounded backoff.
package docstore

import (
	"context"
	"sync"
)

// Document is a JSON-shaped document.
type Document = map[string]any

// Store is the top-level handle services read and write through.
type Store interface {
	// Collection returns a handle for direct, non-transactional access.
	Collection(name string) Collection
	// RunTransaction runs fn with optimistic concurrency. fn may be invoked
	// multiple times under contention and must be idempotent; all staged
	// writes commit atomically or not at all.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Collection reads and writes documents of one collection.
type Collection interface {
	Name() string
	// Get returns the document or sentinel.ErrNotFound.
	Get(ctx context.Context, key string) (Document, error)
	// Set writes the document. With merge, fields are merged recursively
	// into the existing document instead of replacing it.
	Set(ctx context.Context, key string, doc Document, merge bool) error
	Delete(ctx context.Context, key string) error
}

// Tx is the handle passed to a transaction body. Get registers a
// read-dependency (a missing document is itself a dependency: the commit
// fails if it appears concurrently). Set and Delete stage writes.
type Tx interface {
	Get(collection, key string) (Document, error)
	Set(collection, key string, doc Document, merge bool)
	Delete(collection, key string)
}

// The process-wide store handle. Production code installs the real store at
// startup; tests swap in an in-memory store without touching call sites. If
// nothing is ever installed, the handle lazily falls back to an in-memory
// store so local development works out of the box.
var (
	activeMu sync.Mutex
	active   Store
)

// Active returns the process-wide store.
func Active() Store {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active == nil {
		active = NewMemoryStore()
	}
	return active
}

// SetActive installs the production store. Call once at startup, before any
// request is served.
func SetActive(store Store) {
	activeMu.Lock()
	defer activeMu.Unlock()
	active = store
}

// Override swaps the store and returns a restore func. Test harnesses only.
func Override(store Store) (restore func()) {
	activeMu.Lock()
	defer activeMu.Unlock()
	previous := active
	active = store
	return func() {
		activeMu.Lock()
		defer activeMu.Unlock()
		active = previous
	}
}
