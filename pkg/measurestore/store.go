// Package measurestore provides a persistent, content-addressed store for
// block measures.
//
// A measure is a pure function of block content, so a measure computed once
// can be reused by any later process that sees the same content. The store
// memoizes measures under a key derived from the block's canonical
// serialization, independent of block ids or document identity.
//
// The store is an optimization layer, never an authority: a failed or
// missing lookup always degrades to a measurement-port call. Backends:
//
//   - Memory: in-process map, for tests and single-shot runs
//   - File: JSON files under a cache directory, for CLI usage
//   - Redis: shared store for multi-instance deployments
//   - Null: caching disabled
package measurestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("measure store closed")
)

// Store is the persistent measure store interface.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a clean
// miss; errors are reserved for backend failures. Implementations must be
// safe for concurrent use; distinct blocks may be measured in parallel.
type Store interface {
	// Get retrieves the serialized measure for a key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a serialized measure. A ttl of 0 means the entry never
	// expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Close releases backend resources.
	Close() error
}

// Key derives the store key for a block from its canonical serialization.
// The key format is: measure:<sha256 hex>.
func Key(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return "measure:" + hex.EncodeToString(sum[:])
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
