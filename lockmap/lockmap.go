// Package lockmap provides per-key mutual exclusion with idle eviction.
//
// A Map lazily creates one binary lock per distinct key and hands the same
// lock to every caller asking for that key. A background cycle reclaims locks
// that have been unheld and untouched for longer than a configured threshold;
// a held lock is never reclaimed. The Map is the concurrency gate behind
// blitzcache's get-or-compute path, but it knows nothing about cached values.
package lockmap

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by GetLock after Close, and by Acquire calls that
// lose a race with Close.
var ErrClosed = errors.New("lockmap: closed")

const (
	DefaultIdleExpiry      = 10 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// Config tunes a Map. Zero durations fall back to the defaults above;
// negative durations are rejected by New.
type Config struct {
	// IdleExpiry is how long a lock must stay unheld and untouched before
	// the eviction cycle may remove it.
	IdleExpiry time.Duration

	// CleanupInterval is the period of the eviction cycle.
	CleanupInterval time.Duration

	// OnEvict, if set, is called once per evicted key.
	// Must be cheap; it runs on the eviction goroutine.
	OnEvict func(key string)
}

// Map is a concurrency-safe registry of per-key binary locks.
//
// Callers borrow a *Lock via GetLock, pair Acquire with a single Release via
// the returned Guard, and do not retain the reference past their own scope.
type Map struct {
	entries sync.Map // string -> *Lock

	// mu serializes GetLock's closed-check+insert against Close. It only
	// guards map structure and is never held across a lock's Acquire.
	mu     sync.RWMutex
	closed bool

	idleExpiry time.Duration
	onEvict    func(string)

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New constructs a Map and starts its eviction cycle.
func New(cfg Config) (*Map, error) {
	if cfg.IdleExpiry < 0 || cfg.CleanupInterval < 0 {
		return nil, errors.New("lockmap: IdleExpiry and CleanupInterval must not be negative")
	}
	if cfg.IdleExpiry == 0 {
		cfg.IdleExpiry = DefaultIdleExpiry
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}

	m := &Map{
		idleExpiry: cfg.IdleExpiry,
		onEvict:    cfg.OnEvict,
		ticker:     time.NewTicker(cfg.CleanupInterval),
		stopCh:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.evictLoop()
	return m, nil
}

// GetLock returns the lock for key, creating it if absent. Every caller of a
// live key receives the same *Lock. After Close it returns ErrClosed.
func (m *Map) GetLock(key string) (*Lock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if v, ok := m.entries.Load(key); ok {
		return v.(*Lock), nil
	}
	v, _ := m.entries.LoadOrStore(key, newLock(m, key))
	return v.(*Lock), nil
}

// Len reports the number of tracked locks. Diagnostic only.
func (m *Map) Len() int {
	n := 0
	m.entries.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (m *Map) evictLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case <-m.ticker.C:
			m.evictIdle()
		}
	}
}

// evictIdle removes locks that are unheld and idle for at least IdleExpiry.
// TryAcquire fails while a lock is held or has waiters, so a holder is never
// preempted. The identity compare in CompareAndDelete leaves a lock that was
// re-installed for the same key untouched; a failed removal is simply
// re-evaluated on the next cycle.
func (m *Map) evictIdle() {
	cutoff := time.Now().Add(-m.idleExpiry).UnixNano()
	m.entries.Range(func(k, v any) bool {
		l := v.(*Lock)
		if l.lastUsed.Load() > cutoff {
			return true
		}
		if !l.sem.TryAcquire(1) {
			return true // held or contended
		}
		// Re-check idleness: a release may have landed between the scan
		// read and TryAcquire.
		if l.lastUsed.Load() > cutoff {
			l.sem.Release(1)
			return true
		}
		if m.entries.CompareAndDelete(k, v) {
			l.evicted.Store(true)
			if m.onEvict != nil {
				m.onEvict(l.key)
			}
		}
		l.sem.Release(1)
		return true
	})
}

// Close stops the eviction cycle and invalidates every tracked lock.
// Idempotent.
//
// Shutdown policy: immediate invalidation, no drain. Guards handed out before
// Close stay valid and release harmlessly against their detached locks;
// acquisitions that race with Close resolve to ErrClosed.
func (m *Map) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()

		close(m.stopCh)
		m.ticker.Stop()
		m.wg.Wait()

		m.entries.Range(func(k, v any) bool {
			if m.entries.CompareAndDelete(k, v) {
				v.(*Lock).evicted.Store(true)
			}
			return true
		})
	})
}
