// Package kvstore provides the small persistent key-value store used
// for backfill cursors, with a SQLite implementation for production
// and an in-memory one for tests.
package kvstore

import "context"

// Store is a persistent string key-value store.
type Store interface {
	// Get returns the value for key, and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// All returns every key-value pair.
	All(ctx context.Context) (map[string]string, error)
	// Close releases the underlying resources.
	Close() error
}
