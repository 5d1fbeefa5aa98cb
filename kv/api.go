package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Reader.Get when the key is absent.
	ErrNotFound = errors.New("kv: key not found")

	// ErrUnknownCollection is returned when a transaction addresses a
	// collection the store was not opened with.
	ErrUnknownCollection = errors.New("kv: unknown collection")

	// ErrClosed is returned by transactions started after Close.
	ErrClosed = errors.New("kv: store closed")
)

// Reader is a read-only view of a store taken at transaction start.
// Returned byte slices are owned by the caller.
type Reader interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(collection string, key []byte) ([]byte, error)

	// Count returns the number of entries in collection.
	Count(collection string) (int, error)

	// Empty reports whether collection holds no entries without counting
	// them.
	Empty(collection string) (bool, error)

	// ForEach calls fn for every entry in collection in ascending key order.
	// Iteration stops at the first non-nil error, which is returned.
	ForEach(collection string, fn func(key, value []byte) error) error
}

// Writer is a read-write transaction. Reads observe the transaction's own
// writes.
type Writer interface {
	Reader

	// Put stores value under key, replacing any previous value.
	Put(collection string, key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(collection string, key []byte) error
}

// Store is an environment of named collections.
//
// Read transactions run against a consistent snapshot and never block
// writers. Write transactions are serialized: at most one runs at a time and
// it observes the latest committed state. Update commits iff fn returns nil;
// otherwise no change made inside fn becomes visible.
type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Writer) error) error

	// Collections returns the collection names the store was opened with.
	Collections() []string

	Close() error
}
