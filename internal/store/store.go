// internal/store/store.go
//
// Shared-store interface for room, tally, and barrier state.
// The game layer coordinates two independent connection handlers solely
// through this interface, so the atomicity notes below are load-bearing:
//   - Incr and HIncrBy are fetch-and-add: the returned value is the
//     post-update value as observed by exactly one caller.
//   - HSetNX reports whether the field was newly created, which is what
//     makes stage-completion markers idempotent under retransmission.
//
// Implementations:
//   - memory (this package): single-process map guarded by a mutex.
//   - redis (this package): go-redis backed, for multi-instance deployments.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for missing keys and missing hash fields.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface shared by all game components.
type Store interface {
	// Get retrieves a plain string key.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a plain string key.
	Set(ctx context.Context, key, value string) error

	// Del removes keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error

	// HGet retrieves one field of a hash.
	HGet(ctx context.Context, key, field string) (string, error)

	// HSet writes the given fields of a hash, creating it if needed.
	HSet(ctx context.Context, key string, fields map[string]string) error

	// HSetNX writes a field only if it does not exist yet.
	// Reports whether the field was created by this call.
	HSetNX(ctx context.Context, key, field, value string) (bool, error)

	// HGetAll returns every field of a hash; empty map if the key is absent.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// HIncrBy atomically adds delta to an integer hash field (creating it
	// at zero) and returns the post-increment value.
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	// HDel removes fields from a hash. Missing fields are not an error.
	HDel(ctx context.Context, key string, fields ...string) error

	// Incr atomically increments an integer key (creating it at zero) and
	// returns the post-increment value.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets a time-to-live on a key. A zero ttl clears it.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
