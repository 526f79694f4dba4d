package bucket

import (
	"context"
	"errors"
)

var (
	// ErrMiss indicates the requested key was not found in any bucket.
	ErrMiss = errors.New("bucket miss")

	// ErrInvalidEntry indicates the stored entry is corrupted.
	ErrInvalidEntry = errors.New("invalid bucket entry")
)

// Store is a collection of named buckets holding response snapshots.
// Implementations must be safe for concurrent use. Writes are idempotent
// overwrites keyed by URL, so concurrent puts for the same key converge.
type Store interface {
	// Get retrieves an entry. Returns ErrMiss if absent.
	Get(ctx context.Context, bucket, key string) (*Entry, error)

	// Put stores an entry, overwriting any previous value for the key.
	Put(ctx context.Context, bucket, key string, entry *Entry) error

	// Delete removes a single entry. Deleting an absent key is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// Keys enumerates the keys of one bucket.
	Keys(ctx context.Context, bucket string) ([]string, error)

	// Buckets enumerates all bucket names known to the store.
	Buckets(ctx context.Context) ([]string, error)

	// Drop removes a bucket and all of its entries.
	Drop(ctx context.Context, bucket string) error
}
