package blitzcache

import (
	"context"
	"time"

	cd "github.com/chanido/blitzcache-sub001/codec"
	pr "github.com/chanido/blitzcache-sub001/provider"
)

// ComputeFunc produces the value for a key when the cache has none.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// SetCostFunc reports the storage cost of an encoded entry. Only providers
// with cost-based admission (Ristretto) consume it.
type SetCostFunc func(key string, raw []byte) int64

// Cache is the stampede-safe get-or-compute API. For any key, at most one
// compute runs at a time; concurrent callers for the same key suspend on the
// key's lock and observe the freshly stored value once they resume.
type Cache[V any] interface {
	Enabled() bool
	Close(ctx context.Context) error

	// GetOrCompute returns the cached value for key, or runs compute under
	// the key's lock, stores the result with ttl (0 => DefaultTTL) and
	// returns it. Errors from compute propagate unchanged; the key's lock
	// is released on every path.
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc[V]) (V, error)

	// Get is a lock-free read: (value, true, nil) on a fresh hit.
	Get(ctx context.Context, key string) (v V, ok bool, err error)

	// Set stores value under the key's lock.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Update runs compute under the key's lock and stores the result,
	// bypassing any cached value.
	Update(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc[V]) error

	// Invalidate removes the entry for key, under the key's lock.
	Invalidate(ctx context.Context, key string) error

	// Stats returns a point-in-time snapshot of runtime counters.
	Stats() Stats
}

// Provider is re-exported for convenience; see the provider package.
type Provider = pr.Provider

// Options tune the cache. Only Namespace, Provider and Codec are required;
// everything else has sensible defaults.
type Options[V any] struct {
	// Required
	Namespace string // logical namespace to avoid collisions, e.g. "user"
	Provider  pr.Provider
	Codec     cd.Codec[V]

	Logger              Logger        // nil => NopLogger
	Hooks               Hooks         // nil => NopHooks
	DefaultTTL          time.Duration // 0 => 10m
	LockIdleExpiry      time.Duration // idle threshold before a key's lock is reclaimed; 0 => 10m
	LockCleanupInterval time.Duration // period of the lock eviction cycle; 0 => 1m
	Disabled            bool          // pass-through mode: computes run unlocked, nothing is stored
	ComputeSetCost      SetCostFunc   // default: constant 1
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
