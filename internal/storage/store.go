// Package storage provides the durable key/value store behind all session
// state. Failures are deliberately soft: callers keep their in-memory state
// authoritative and retry on the next write.
package storage

import (
	"context"
	"errors"
)

// ErrUnavailable wraps any failure of the underlying medium. Components
// treat it as non-fatal and continue memory-only.
var ErrUnavailable = errors.New("storage unavailable")

// Store is an asynchronous-friendly key/value contract. Operations on the
// same key must be applied in submission order; each record owner enforces
// this by serializing its own writes under its mutex, so implementations
// only need per-call atomicity.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
