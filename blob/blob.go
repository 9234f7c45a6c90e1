// Package blob abstracts the storage of the flat backing tables
// (history, ledger, holdings, policy, tracker) behind a minimal
// get/put interface, with a filesystem implementation for production
// and an in-memory one for tests.
package blob

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when the named object does not exist.
var ErrNotExist = errors.New("blob does not exist")

// Store is an opaque named-object store.
type Store interface {
	// Get returns the full content of the named object, or an error
	// wrapping ErrNotExist.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put replaces the named object's content. The write must be
	// all-or-nothing: a reader never observes a partial object.
	Put(ctx context.Context, name string, data []byte) error
}

// IsNotExist reports whether err means the object was absent.
func IsNotExist(err error) bool { return errors.Is(err, ErrNotExist) }
