// Package store provides the terminal's local key-value persistence.
//
// The desktop client keeps small bits of state outside the upstream API:
// checkout drafts, the active restaurant, status overrides, the lock PIN.
// Everything goes through the Store interface so handlers never touch a
// concrete backend and tests can swap in the in-memory implementation.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no value in the given scope.
var ErrNotFound = errors.New("store: key not found")

// Store is a scoped key-value store. Scopes keep unrelated features
// (drafts, session, overrides) from colliding on key names.
type Store interface {
	// Get returns the value for key within scope, or ErrNotFound.
	Get(ctx context.Context, scope, key string) ([]byte, error)

	// Set writes the value for key within scope, replacing any previous value.
	Set(ctx context.Context, scope, key string, value []byte) error

	// Delete removes key from scope. Deleting an absent key is not an error.
	Delete(ctx context.Context, scope, key string) error

	// List returns all values in a scope, keyed by their store key.
	List(ctx context.Context, scope string) (map[string][]byte, error)

	// Close releases any resources held by the store.
	Close() error
}
