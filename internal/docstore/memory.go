package docstore

import (
	"context"
	"fmt"
	"sync"

	"uidtrust/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used in tests and local development.
// Every document carries a version; transactions validate their read-set
// against current versions at commit.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]versionedDoc
}

type versionedDoc struct {
	data    Document
	version uint64
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]versionedDoc)}
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

// version returns the current version of a document, 0 when absent.
func (s *MemoryStore) version(collection, key string) uint64 {
	if docs, ok := s.collections[collection]; ok {
		return docs[key].version
	}
	return 0
}

func (s *MemoryStore) get(collection, key string) (versionedDoc, bool) {
	docs, ok := s.collections[collection]
	if !ok {
		return versionedDoc{}, false
	}
	doc, ok := docs[key]
	return doc, ok
}

// set applies a write under s.mu, bumping the version.
func (s *MemoryStore) set(collection, key string, doc Document, merge bool) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]versionedDoc)
		s.collections[collection] = docs
	}
	existing := docs[key]
	data := deepCopy(doc)
	if merge && existing.data != nil {
		data = mergeDocs(existing.data, doc)
	}
	docs[key] = versionedDoc{data: data, version: existing.version + 1}
}

// delete removes a document. The version counter survives deletion so a
// transaction that read the document still conflicts with a concurrent
// delete-then-recreate.
func (s *MemoryStore) delete(collection, key string) {
	docs, ok := s.collections[collection]
	if !ok {
		return
	}
	if existing, present := docs[key]; present {
		docs[key] = versionedDoc{data: nil, version: existing.version + 1}
	}
}

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) Name() string { return c.name }

func (c *memoryCollection) Get(_ context.Context, key string) (Document, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	doc, ok := c.store.get(c.name, key)
	if !ok || doc.data == nil {
		return nil, fmt.Errorf("%s/%s: %w", c.name, key, sentinel.ErrNotFound)
	}
	return deepCopy(doc.data), nil
}

func (c *memoryCollection) Set(_ context.Context, key string, doc Document, merge bool) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.set(c.name, key, doc, merge)
	return nil
}

func (c *memoryCollection) Delete(_ context.Context, key string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.delete(c.name, key)
	return nil
}

type docRef struct {
	collection string
	key        string
}

type stagedWrite struct {
	ref    docRef
	doc    Document
	merge  bool
	delete bool
}

type memoryTx struct {
	store  *MemoryStore
	reads  map[docRef]uint64
	writes []stagedWrite
}

func (t *memoryTx) Get(collection, key string) (Document, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	ref := docRef{collection: collection, key: key}
	doc, ok := t.store.get(collection, key)
	t.reads[ref] = doc.version
	if !ok || doc.data == nil {
		return nil, fmt.Errorf("%s/%s: %w", collection, key, sentinel.ErrNotFound)
	}
	return deepCopy(doc.data), nil
}

func (t *memoryTx) Set(collection, key string, doc Document, merge bool) {
	t.writes = append(t.writes, stagedWrite{
		ref:   docRef{collection: collection, key: key},
		doc:   deepCopy(doc),
		merge: merge,
	})
}

func (t *memoryTx) Delete(collection, key string) {
	t.writes = append(t.writes, stagedWrite{
		ref:    docRef{collection: collection, key: key},
		delete: true,
	})
}

// commit validates the read-set and applies staged writes atomically.
func (t *memoryTx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for ref, seen := range t.reads {
		if t.store.version(ref.collection, ref.key) != seen {
			return fmt.Errorf("%s/%s modified concurrently: %w", ref.collection, ref.key, sentinel.ErrConflict)
		}
	}
	for _, w := range t.writes {
		if w.delete {
			t.store.delete(w.ref.collection, w.ref.key)
			continue
		}
		t.store.set(w.ref.collection, w.ref.key, w.doc, w.merge)
	}
	return nil
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return runWithRetry(ctx, func(ctx context.Context) error {
		tx := &memoryTx{store: s, reads: make(map[docRef]uint64)}
		if err := fn(tx); err != nil {
			return err
		}
		return tx.commit()
	})
}
