package lsh

import "context"

// SimilarityIndex is the capability of a MinHash LSH index: it maps keys to
// signatures and answers candidate queries. It lets callers swap the
// persistent Index for other implementations (e.g. in tests).
type SimilarityIndex interface {
	// Insert adds key with its signature. Keys are unique per index.
	Insert(ctx context.Context, key any, signature []uint64) error

	// Query returns the candidate keys sharing at least one band digest with
	// signature. Candidates are unverified and unranked.
	Query(ctx context.Context, signature []uint64) ([]any, error)

	// Remove deletes key and all of its postings.
	Remove(ctx context.Context, key any) error

	// Contains reports whether key is indexed.
	Contains(ctx context.Context, key any) (bool, error)

	// IsEmpty reports whether no key is indexed.
	IsEmpty(ctx context.Context) (bool, error)

	// Close releases the index; it must not be used afterwards.
	Close() error
}

// Entry pairs a key with its signature for InsertBatch.
type Entry struct {
	Key       any
	Signature []uint64
}

var _ SimilarityIndex = (*Index)(nil)
