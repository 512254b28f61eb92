package lockmap

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Lock is the binary lock guarding a single key. At most one holder at a
// time; further Acquire calls suspend until the Guard is released.
type Lock struct {
	m   *Map
	key string

	sem      *semaphore.Weighted
	lastUsed atomic.Int64 // unix nanos of the latest acquire or release
	evicted  atomic.Bool
}

func newLock(m *Map, key string) *Lock {
	l := &Lock{m: m, key: key, sem: semaphore.NewWeighted(1)}
	l.touch()
	return l
}

func (l *Lock) touch() { l.lastUsed.Store(time.Now().UnixNano()) }

// Acquire suspends the calling goroutine (not the underlying thread) until
// the lock is available, then returns the Guard that is the single point of
// release.
//
// If the entry was evicted between GetLock and Acquire, Acquire transparently
// re-fetches the lock currently installed for the key, so the returned Guard
// always guards the live lock. Cancellation returns ctx.Err(), distinct from
// ErrClosed. Re-entrant acquisition is not supported: acquiring again before
// releasing suspends like any other caller.
func (l *Lock) Acquire(ctx context.Context) (*Guard, error) {
	cur := l
	for {
		if err := cur.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		if !cur.evicted.Load() {
			cur.touch()
			return &Guard{lock: cur}, nil
		}
		// Lost a race with the eviction cycle or Close: this entry is no
		// longer the one installed for the key.
		cur.sem.Release(1)
		next, err := cur.m.GetLock(cur.key)
		if err != nil {
			return nil, err
		}
		cur = next
	}
}

// Guard releases its lock exactly once, on whichever exit path disposes it:
//
//	guard, err := lock.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer guard.Release()
//
// A second Release is a programming error and panics, like unlocking an
// unlocked sync.Mutex.
type Guard struct {
	lock     *Lock
	released atomic.Bool
}

// Release updates the lock's idle clock and makes it available to the next
// waiter.
func (g *Guard) Release() {
	if g.released.Swap(true) {
		panic("lockmap: Guard released twice")
	}
	g.lock.touch()
	g.lock.sem.Release(1)
}
