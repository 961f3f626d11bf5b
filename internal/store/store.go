// Package store provides the durable key/value storage behind the roster and session.
//
// A Store holds a handful of named JSON documents. Writers that need a
// read-modify-write cycle take the store-wide Lock first; every backend
// serialises Lock holders across processes, not just goroutines.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the key has never been written or was deleted.
	ErrNotFound = errors.New("key not found")

	// ErrLockTimeout indicates another writer held the lock for too long.
	ErrLockTimeout = errors.New("timed out waiting for store lock")

	// ErrInvalidKey indicates a key that cannot be mapped to storage.
	ErrInvalidKey = errors.New("invalid store key")
)

// Unlock releases a lock obtained from Store.Lock.
type Unlock func() error

// Store is a small durable key/value store with a single-writer lock.
type Store interface {
	// Get returns the bytes stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value at key. Readers never observe a partial write.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Lock blocks until the caller is the only writer or ctx is done.
	Lock(ctx context.Context) (Unlock, error)

	// Close releases backend resources.
	Close() error
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\:`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
