package blitzcache

import (
	"context"
	"fmt"
	"time"

	cd "github.com/chanido/blitzcache-sub001/codec"
	"github.com/chanido/blitzcache-sub001/internal/wire"
	"github.com/chanido/blitzcache-sub001/lockmap"
	pr "github.com/chanido/blitzcache-sub001/provider"
)

type cache[V any] struct {
	ns       string
	provider pr.Provider
	codec    cd.Codec[V]
	log      Logger
	hooks    Hooks
	enabled  bool

	defaultTTL time.Duration
	setCost    SetCostFunc

	locks *lockmap.Map
	stats counters
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("blitzcache: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("blitzcache: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("blitzcache: namespace is required")
	}

	c := &cache[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		enabled:  !opts.Disabled,
	}

	// defaults
	c.log = opts.Logger
	if c.log == nil {
		c.log = NopLogger{}
	}
	c.hooks = opts.Hooks
	if c.hooks == nil {
		c.hooks = NopHooks{}
	}
	c.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, 10*time.Minute)

	if opts.ComputeSetCost != nil {
		c.setCost = opts.ComputeSetCost
	} else {
		c.setCost = func(_ string, _ []byte) int64 { return 1 }
	}

	if c.enabled {
		locks, err := lockmap.New(lockmap.Config{
			IdleExpiry:      opts.LockIdleExpiry,
			CleanupInterval: opts.LockCleanupInterval,
			OnEvict: func(key string) {
				c.stats.lockEvictions.Add(1)
				c.hooks.LockEvicted(key)
				c.log.Debug("idle lock evicted", Fields{"key": key})
			},
		})
		if err != nil {
			return nil, err
		}
		c.locks = locks
	}
	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	// Stop handing out locks first so no new computes start mid-teardown.
	if c.locks != nil {
		c.locks.Close()
	}
	if c.provider != nil {
		return c.provider.Close(ctx)
	}
	return nil
}

func (c *cache[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc[V]) (V, error) {
	var zero V
	if !c.enabled {
		return compute(ctx)
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	k := c.storageKey(key)

	lock, err := c.locks.GetLock(key)
	if err != nil {
		return zero, err
	}
	guard, err := lock.Acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer guard.Release()

	v, ok, lerr := c.lookup(ctx, k)
	if lerr != nil {
		c.log.Warn("provider read error; computing", Fields{"key": key, "err": lerr})
	}
	if ok {
		c.stats.hits.Add(1)
		c.hooks.Hit(key)
		return v, nil
	}
	c.stats.misses.Add(1)
	c.hooks.Miss(key)

	start := time.Now()
	v, err = compute(ctx)
	c.stats.computeNanos.Add(int64(time.Since(start)))
	if err != nil {
		c.stats.computeErrors.Add(1)
		c.hooks.ComputeError(key, err)
		return zero, err // compute errors propagate unchanged
	}
	if serr := c.store(ctx, k, v, ttl); serr != nil {
		// The value is still good; the next caller just recomputes.
		c.log.Warn("store after compute failed", Fields{"key": key, "err": serr})
	}
	return v, nil
}

func (c *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if !c.enabled {
		return zero, false, nil
	}
	return c.lookup(ctx, c.storageKey(key))
}

func (c *cache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	release, err := c.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return c.store(ctx, c.storageKey(key), value, ttl)
}

func (c *cache[V]) Update(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc[V]) error {
	if !c.enabled {
		_, err := compute(ctx)
		return err
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	release, err := c.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	v, err := compute(ctx)
	c.stats.computeNanos.Add(int64(time.Since(start)))
	if err != nil {
		c.stats.computeErrors.Add(1)
		c.hooks.ComputeError(key, err)
		return err
	}
	return c.store(ctx, c.storageKey(key), v, ttl)
}

func (c *cache[V]) Invalidate(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	release, err := c.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return c.provider.Del(ctx, c.storageKey(key))
}

// acquire takes the key's lock and returns its release func.
func (c *cache[V]) acquire(ctx context.Context, key string) (func(), error) {
	lock, err := c.locks.GetLock(key)
	if err != nil {
		return nil, err
	}
	guard, err := lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return guard.Release, nil
}

// lookup reads and unframes the entry at storage key k. Expired or corrupt
// entries are deleted (self-heal) and reported as a miss.
func (c *cache[V]) lookup(ctx context.Context, k string) (V, bool, error) {
	var zero V
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	expiresAt, payload, err := wire.Decode(raw)
	if err != nil {
		_ = c.provider.Del(ctx, k) // self-heal corrupt
		c.hooks.SelfHeal(k, "corrupt")
		return zero, false, nil
	}
	if expiresAt != 0 && time.Now().UnixNano() >= expiresAt {
		_ = c.provider.Del(ctx, k)
		c.hooks.SelfHeal(k, "expired")
		return zero, false, nil
	}
	v, err := c.codec.Decode(payload)
	if err != nil {
		_ = c.provider.Del(ctx, k) // self-heal
		c.hooks.SelfHeal(k, "value_decode")
		return zero, false, nil
	}
	return v, true, nil
}

func (c *cache[V]) store(ctx context.Context, k string, value V, ttl time.Duration) error {
	payload, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}
	raw := wire.Encode(expiresAt, payload)
	ok, err := c.provider.Set(ctx, k, raw, c.setCost(k, raw), ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.hooks.ProviderSetRejected(k)
		c.log.Debug("set rejected by provider (pressure)", Fields{"key": k})
		return nil
	}
	c.stats.bytesStored.Add(int64(len(raw)))
	return nil
}

func (c *cache[V]) storageKey(userKey string) string {
	// isolate by namespace
	return c.ns + ":" + userKey
}
