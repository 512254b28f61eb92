package blitzcache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chanido/blitzcache-sub001/human"
)

// counters are bumped on hot paths without locking.
type counters struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	computeErrors atomic.Uint64
	lockEvictions atomic.Uint64
	bytesStored   atomic.Int64
	computeNanos  atomic.Int64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits          uint64        // fresh entries served from the provider
	Misses        uint64        // lookups that led to a compute
	ComputeErrors uint64        // failed compute calls
	LockEvictions uint64        // idle key locks reclaimed by the lockmap
	BytesStored   int64         // total framed bytes written to the provider
	ComputeTime   time.Duration // cumulative time spent in compute calls
}

// HitRatio reports Hits/(Hits+Misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d errors=%d lock_evictions=%d stored=%s compute=%s",
		s.Hits, s.Misses, s.ComputeErrors, s.LockEvictions,
		human.FormatBytes(s.BytesStored),
		human.FormatDuration(s.ComputeTime.Milliseconds()))
}

func (c *cache[V]) Stats() Stats {
	return Stats{
		Hits:          c.stats.hits.Load(),
		Misses:        c.stats.misses.Load(),
		ComputeErrors: c.stats.computeErrors.Load(),
		LockEvictions: c.stats.lockEvictions.Load(),
		BytesStored:   c.stats.bytesStored.Load(),
		ComputeTime:   time.Duration(c.stats.computeNanos.Load()),
	}
}
