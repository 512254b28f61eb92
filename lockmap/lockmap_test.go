package lockmap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMap(t *testing.T, cfg Config) *Map {
	t.Helper()
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestNewRejectsNegativeDurations(t *testing.T) {
	if _, err := New(Config{IdleExpiry: -time.Second}); err == nil {
		t.Fatal("want error for negative IdleExpiry")
	}
	if _, err := New(Config{CleanupInterval: -time.Second}); err == nil {
		t.Fatal("want error for negative CleanupInterval")
	}
	// zero is not an error; it selects the defaults
	m, err := New(Config{})
	if err != nil {
		t.Fatalf("New with zero durations: %v", err)
	}
	m.Close()
}

func TestGetLockSameInstancePerKey(t *testing.T) {
	m := newTestMap(t, Config{})

	l1, err := m.GetLock("a")
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	l2, err := m.GetLock("a")
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	if l1 != l2 {
		t.Fatal("two GetLock calls for the same live key returned different locks")
	}

	other, err := m.GetLock("b")
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	if other == l1 {
		t.Fatal("distinct keys share a lock")
	}
}

func TestLenGrowsByDistinctKeys(t *testing.T) {
	m := newTestMap(t, Config{})

	const n = 10
	before := m.Len()
	for i := 0; i < n; i++ {
		if _, err := m.GetLock(fmt.Sprintf("key-%d", i)); err != nil {
			t.Fatalf("GetLock: %v", err)
		}
	}
	if got := m.Len(); got != before+n {
		t.Fatalf("Len=%d want %d", got, before+n)
	}
	// repeated keys do not grow the map
	if _, err := m.GetLock("key-0"); err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	if got := m.Len(); got != before+n {
		t.Fatalf("Len=%d after repeat, want %d", got, before+n)
	}
}

func TestConcurrentDistinctKeys(t *testing.T) {
	m := newTestMap(t, Config{})
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	var acquired atomic.Int64
	errCh := make(chan error, n)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			lock, err := m.GetLock(fmt.Sprintf("key-%d", i))
			if err != nil {
				errCh <- err
				return
			}
			guard, err := lock.Acquire(ctx)
			if err != nil {
				errCh <- err
				return
			}
			acquired.Add(1)
			guard.Release()
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("worker: %v", err)
	}

	if got := acquired.Load(); got != n {
		t.Fatalf("acquired=%d want %d", got, n)
	}
	if got := m.Len(); got != n {
		t.Fatalf("Len=%d want %d (no duplicate entries per key)", got, n)
	}
}

func TestSameKeyMutualExclusion(t *testing.T) {
	m := newTestMap(t, Config{})
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	var inside atomic.Int32
	var maxInside atomic.Int32
	counter := 0 // unsynchronized on purpose; the lock must serialize access

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			lock, err := m.GetLock("hot")
			if err != nil {
				t.Error(err)
				return
			}
			guard, err := lock.Acquire(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			defer guard.Release()

			cur := inside.Add(1)
			if cur > maxInside.Load() {
				maxInside.Store(cur)
			}
			counter++
			inside.Add(-1)
		}()
	}
	wg.Wait()

	if counter != n {
		t.Fatalf("counter=%d want %d", counter, n)
	}
	if got := maxInside.Load(); got != 1 {
		t.Fatalf("max concurrent holders=%d want 1", got)
	}
}

func TestCloseIdempotentAndDisposes(t *testing.T) {
	m := newTestMap(t, Config{})

	for i := 0; i < 3; i++ {
		if _, err := m.GetLock(fmt.Sprintf("k%d", i)); err != nil {
			t.Fatalf("GetLock: %v", err)
		}
	}

	m.Close()
	m.Close() // same observable effect as once
	if got := m.Len(); got != 0 {
		t.Fatalf("Len=%d after Close, want 0", got)
	}
	if _, err := m.GetLock("k0"); !errors.Is(err, ErrClosed) {
		t.Fatalf("err=%v want ErrClosed", err)
	}
}

func TestIdleEviction(t *testing.T) {
	m := newTestMap(t, Config{
		IdleExpiry:      30 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		lock, err := m.GetLock(fmt.Sprintf("k%d", i))
		if err != nil {
			t.Fatalf("GetLock: %v", err)
		}
		guard, err := lock.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		guard.Release()
	}
	if got := m.Len(); got != 3 {
		t.Fatalf("Len=%d want 3", got)
	}

	if !waitFor(t, 2*time.Second, func() bool { return m.Len() == 0 }) {
		t.Fatalf("idle locks not reclaimed; Len=%d", m.Len())
	}
}

func TestHeldLocksSurviveEviction(t *testing.T) {
	m := newTestMap(t, Config{
		IdleExpiry:      20 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	})
	ctx := context.Background()

	var guards []*Guard
	for _, k := range []string{"held-1", "held-2"} {
		lock, err := m.GetLock(k)
		if err != nil {
			t.Fatalf("GetLock: %v", err)
		}
		guard, err := lock.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		guards = append(guards, guard)
	}

	time.Sleep(100 * time.Millisecond) // several eviction cycles
	if got := m.Len(); got < 2 {
		t.Fatalf("Len=%d, held locks were reclaimed", got)
	}
	for _, g := range guards {
		g.Release()
	}
}

func TestAcquireRefetchesAfterEviction(t *testing.T) {
	m := newTestMap(t, Config{
		IdleExpiry:      20 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	})
	ctx := context.Background()

	lock, err := m.GetLock("k")
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	// hold only the reference; let the entry go idle and get evicted
	if !waitFor(t, 2*time.Second, func() bool { return m.Len() == 0 }) {
		t.Fatalf("entry not evicted; Len=%d", m.Len())
	}

	guard, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire on evicted reference: %v", err)
	}
	defer guard.Release()
	if got := m.Len(); got != 1 {
		t.Fatalf("Len=%d want 1 (re-fetched entry installed)", got)
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	m := newTestMap(t, Config{})
	ctx := context.Background()

	lock, err := m.GetLock("k")
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	guard, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer guard.Release()

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if _, err := lock.Acquire(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want context.DeadlineExceeded", err)
	}
}

func TestCloseResolvesPendingAcquire(t *testing.T) {
	m := newTestMap(t, Config{})
	ctx := context.Background()

	lock, err := m.GetLock("k")
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	guard, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := lock.Acquire(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond) // let the waiter park
	m.Close()
	guard.Release() // outstanding guard stays valid through Close

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("pending acquire err=%v want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending acquire did not resolve after Close")
	}
}

func TestGuardDoubleReleasePanics(t *testing.T) {
	m := newTestMap(t, Config{})

	lock, err := m.GetLock("k")
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	guard, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	guard.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("second Release did not panic")
		}
	}()
	guard.Release()
}
