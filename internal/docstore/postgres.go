package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"uidtrust/pkg/platform/sentinel"
)

// PostgresStore persists documents as JSONB rows with an explicit version
// column. RunTransaction implements optimistic concurrency as
// read-then-compare-and-swap: at commit the read-set versions are re-checked
// under row locks before staged writes apply, and a mismatch aborts the
// attempt for retry.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the documents table if missing. data is nullable:
// deletion writes a NULL tombstone so the version counter survives and a
// delete-then-recreate still conflicts with readers of the old document.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT        NOT NULL,
			key        TEXT        NOT NULL,
			data       JSONB,
			version    BIGINT      NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, key)
		)`)
	if err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

// Health checks store reachability.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Collection(name string) Collection {
	return &postgresCollection{store: s, name: name}
}

type postgresCollection struct {
	store *PostgresStore
	name  string
}

func (c *postgresCollection) Name() string { return c.name }

func (c *postgresCollection) Get(ctx context.Context, key string) (Document, error) {
	var raw []byte
	err := c.store.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND key = $2`,
		c.name, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", c.name, key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.name, key, err)
	}
	if raw == nil {
		// Tombstone row.
		return nil, fmt.Errorf("%s/%s: %w", c.name, key, sentinel.ErrNotFound)
	}
	return unmarshalDoc(raw)
}

// Set outside a transaction goes through RunTransaction so merge writes
// still CAS against concurrent writers.
func (c *postgresCollection) Set(ctx context.Context, key string, doc Document, merge bool) error {
	return c.store.RunTransaction(ctx, func(tx Tx) error {
		if merge {
			// Register the read dependency; a missing doc merges into an
			// empty one.
			if _, err := tx.Get(c.name, key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return err
			}
		}
		tx.Set(c.name, key, doc, merge)
		return nil
	})
}

func (c *postgresCollection) Delete(ctx context.Context, key string) error {
	return c.store.RunTransaction(ctx, func(tx Tx) error {
		tx.Delete(c.name, key)
		return nil
	})
}

type postgresTx struct {
	store  *PostgresStore
	ctx    context.Context
	reads  map[docRef]uint64
	writes []stagedWrite
	err    error
}

func (t *postgresTx) Get(collection, key string) (Document, error) {
	ref := docRef{collection: collection, key: key}
	var raw []byte
	var version uint64
	err := t.store.pool.QueryRow(t.ctx,
		`SELECT data, version FROM documents WHERE collection = $1 AND key = $2`,
		collection, key).Scan(&raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		t.reads[ref] = 0
		return nil, fmt.Errorf("%s/%s: %w", collection, key, sentinel.ErrNotFound)
	}
	if err != nil {
		t.err = fmt.Errorf("tx get %s/%s: %w", collection, key, err)
		return nil, t.err
	}
	t.reads[ref] = version
	if raw == nil {
		// Tombstone: the read-dependency is registered at the tombstone's
		// version so a concurrent recreate still conflicts.
		return nil, fmt.Errorf("%s/%s: %w", collection, key, sentinel.ErrNotFound)
	}
	doc, err := unmarshalDoc(raw)
	if err != nil {
		t.err = err
		return nil, err
	}
	return doc, nil
}

func (t *postgresTx) Set(collection, key string, doc Document, merge bool) {
	t.writes = append(t.writes, stagedWrite{
		ref:   docRef{collection: collection, key: key},
		doc:   deepCopy(doc),
		merge: merge,
	})
}

func (t *postgresTx) Delete(collection, key string) {
	t.writes = append(t.writes, stagedWrite{
		ref:    docRef{collection: collection, key: key},
		delete: true,
	})
}

// commit re-validates the read-set under row locks, then applies staged
// writes, all inside one SQL transaction.
func (t *postgresTx) commit() error {
	sqlTx, err := t.store.pool.BeginTx(t.ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = sqlTx.Rollback(t.ctx) }()

	for ref, seen := range t.reads {
		var current uint64
		err := sqlTx.QueryRow(t.ctx,
			`SELECT version FROM documents WHERE collection = $1 AND key = $2 FOR UPDATE`,
			ref.collection, ref.key).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			current = 0
		} else if err != nil {
			return fmt.Errorf("validate %s/%s: %w", ref.collection, ref.key, err)
		}
		if current != seen {
			return fmt.Errorf("%s/%s modified concurrently: %w", ref.collection, ref.key, sentinel.ErrConflict)
		}
	}

	for _, w := range t.writes {
		if err := t.applyWrite(sqlTx, w); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(t.ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *postgresTx) applyWrite(sqlTx pgx.Tx, w stagedWrite) error {
	if w.delete {
		// Tombstone instead of removing the row: the version keeps counting
		// so a transaction that read the document conflicts with a
		// concurrent delete-then-recreate, matching the memory engine.
		_, err := sqlTx.Exec(t.ctx,
			`UPDATE documents SET data = NULL, version = version + 1, updated_at = now()
			 WHERE collection = $1 AND key = $2`,
			w.ref.collection, w.ref.key)
		if err != nil {
			return fmt.Errorf("delete %s/%s: %w", w.ref.collection, w.ref.key, err)
		}
		return nil
	}

	doc := w.doc
	if w.merge {
		existing, err := t.currentDoc(sqlTx, w.ref)
		if err != nil {
			return err
		}
		if existing != nil {
			doc = mergeDocs(existing, w.doc)
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", w.ref.collection, w.ref.key, err)
	}
	_, err = sqlTx.Exec(t.ctx, `
		INSERT INTO documents (collection, key, data, version, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (collection, key) DO UPDATE
		SET data = $3, version = documents.version + 1, updated_at = now()`,
		w.ref.collection, w.ref.key, raw)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", w.ref.collection, w.ref.key, err)
	}
	return nil
}

// currentDoc reads the document as seen inside the SQL transaction, after
// any writes this transaction has already applied.
func (t *postgresTx) currentDoc(sqlTx pgx.Tx, ref docRef) (Document, error) {
	var raw []byte
	err := sqlTx.QueryRow(t.ctx,
		`SELECT data FROM documents WHERE collection = $1 AND key = $2`,
		ref.collection, ref.key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", ref.collection, ref.key, err)
	}
	if raw == nil {
		return nil, nil
	}
	return unmarshalDoc(raw)
}

func (s *PostgresStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return runWithRetry(ctx, func(ctx context.Context) error {
		tx := &postgresTx{
			store: s,
			ctx:   ctx,
			reads: make(map[docRef]uint64),
		}
		if err := fn(tx); err != nil {
			return err
		}
		if tx.err != nil {
			return tx.err
		}
		return tx.commit()
	})
}

func unmarshalDoc(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}
