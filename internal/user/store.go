package user

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uidtrust/internal/docstore"
)

// Collection base names. The environment's prefix ("" or "test_") selects
// the physical collection; prefixes are never mixed in one deployment.
const (
	usersCollection          = "users"
	destroyedUsersCollection = "destroyedUsers"
)

// Store is the typed layer over the document store for user records. The
// business invariants (at-most-one binding, approved-before-destroy) belong
// to the state machines; Store owns only the document shapes and keys.
type Store struct {
	db        docstore.Store
	users     string
	destroyed string
}

// NewStore builds a Store with the environment's collection prefix.
func NewStore(db docstore.Store, prefix string) *Store {
	return &Store{
		db:        db,
		users:     prefix + usersCollection,
		destroyed: prefix + destroyedUsersCollection,
	}
}

// GetUser reads a live user record outside any transaction. Returns
// sentinel.ErrNotFound (wrapped) when absent.
func (s *Store) GetUser(ctx context.Context, key string) (*User, error) {
	doc, err := s.db.Collection(s.users).Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeAs[User](doc)
}

// SaveUser writes a full user record. Used by the KYC callback path and by
// test fixtures; the state machines go through transactions instead.
func (s *Store) SaveUser(ctx context.Context, u *User) error {
	doc, err := encode(u)
	if err != nil {
		return err
	}
	return s.db.Collection(s.users).Set(ctx, KeyFromString(u.Address), doc, false)
}

// GetDestroyedUser reads the deletion log for an address.
func (s *Store) GetDestroyedUser(ctx context.Context, key string) (*DestroyedUser, error) {
	doc, err := s.db.Collection(s.destroyed).Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeAs[DestroyedUser](doc)
}

// RunTransaction runs fn against typed transaction handles for the user
// collections. Retries and atomicity come from the underlying store.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.RunTransaction(ctx, func(raw docstore.Tx) error {
		return fn(&Tx{raw: raw, store: s})
	})
}

// Tx exposes the user collections inside one optimistic transaction.
type Tx struct {
	raw   docstore.Tx
	store *Store
}

// GetUser reads a user and registers the read-dependency.
func (t *Tx) GetUser(key string) (*User, error) {
	doc, err := t.raw.Get(t.store.users, key)
	if err != nil {
		return nil, err
	}
	return decodeAs[User](doc)
}

// SetRecipientAuthorization stages a merge write recording that recipient
// may receive the credential uidType. Sibling authorizations survive the
// merge.
func (t *Tx) SetRecipientAuthorization(key string, uidType UIDType, recipient string, now time.Time) {
	t.raw.Set(t.store.users, key, docstore.Document{
		"uidRecipientAuthorizations": map[string]any{
			uidType.String(): recipient,
		},
		"updatedAt": now.Unix(),
	}, true)
}

// DeleteUser stages deletion of the live record.
func (t *Tx) DeleteUser(key string) {
	t.raw.Delete(t.store.users, key)
}

// GetDestroyedUser reads the deletion log and registers the
// read-dependency, including on its absence.
func (t *Tx) GetDestroyedUser(key string) (*DestroyedUser, error) {
	doc, err := t.raw.Get(t.store.destroyed, key)
	if err != nil {
		return nil, err
	}
	return decodeAs[DestroyedUser](doc)
}

// SetDestroyedUser stages a full write of the deletion log.
func (t *Tx) SetDestroyedUser(d *DestroyedUser) error {
	doc, err := encode(d)
	if err != nil {
		return err
	}
	t.raw.Set(t.store.destroyed, KeyFromString(d.Address), doc, false)
	return nil
}

// Document conversions go through JSON so the store only ever sees plain
// JSON-shaped maps.
func encode(v any) (docstore.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

func decodeAs[T any](doc docstore.Document) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}
