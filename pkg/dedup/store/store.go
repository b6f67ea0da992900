// Package store defines the shared key/value contract the deduplication
// engine coordinates through, plus an in-memory implementation.
package store

import (
	"context"
	"time"
)

// Store is a key/value service with TTL support. Values are opaque blobs and
// must round-trip byte-for-byte. The store may be shared between processes;
// the engine never assumes exclusive write access to it.
type Store interface {
	// Get returns the value for key, or false when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key for ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Has reports whether key holds an unexpired value.
	Has(ctx context.Context, key string) (bool, error)

	// Forget removes key. Removing an absent key is not an error.
	Forget(ctx context.Context, key string) error
}

// AtomicStore is an optional extension for stores that can write a key only
// when it is absent. The engine uses it, when available, to shrink the window
// between checking and marking an in-flight key.
type AtomicStore interface {
	// PutIfAbsent stores value under key for ttl and returns true, or returns
	// false without writing when the key already holds a value.
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}
