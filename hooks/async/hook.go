// Package asynchook decouples hook delivery from the cache's hot paths.
// Events are queued to a bounded channel and handed to the wrapped Hooks on
// worker goroutines; when the queue is full, events are dropped rather than
// blocking a caller.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery:      100, // sample logs: ~every 100th hit
//	    SelfHealEvery: 10,
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := blitzcache.New[User](blitzcache.Options[User]{
//	    Namespace: "user",
//	    Provider:  provider,
//	    Codec:     codec.JSONCodec[User]{},
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	blitzcache "github.com/chanido/blitzcache-sub001"
)

type Hooks struct {
	inner blitzcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ blitzcache.Hooks = (*Hooks)(nil)

func New(inner blitzcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) Hit(k string)                 { h.try(func() { h.inner.Hit(k) }) }
func (h *Hooks) Miss(k string)                { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) ComputeError(k string, e error) { h.try(func() { h.inner.ComputeError(k, e) }) }
func (h *Hooks) SelfHeal(k, r string)         { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string) { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) LockEvicted(k string)         { h.try(func() { h.inner.LockEvicted(k) }) }
