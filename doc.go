// Package blitzcache prevents cache stampedes: when many concurrent callers
// ask for the same missing or expired entry, exactly one of them runs the
// compute function while the rest suspend on a per-key lock and reuse the
// freshly stored result.
//
// Components:
//   - lockmap.Map: per-key binary locks with idle eviction (the concurrency
//     gate; see the lockmap package).
//   - Provider: byte store with TTL (e.g. Ristretto, BigCache, Redis).
//   - Codec[V]: (de)serializes V <-> []byte.
//
// Entries are framed with their absolute expiry on the wire, so per-entry TTL
// holds even on providers without native TTL support.
//
// Typical use:
//
//	cache, _ := blitzcache.New[User](blitzcache.Options[User]{
//	    Namespace: "user",
//	    Provider:  provider,
//	    Codec:     codec.JSONCodec[User]{},
//	})
//	defer cache.Close(ctx)
//
//	u, err := cache.GetOrCompute(ctx, id, 0, func(ctx context.Context) (User, error) {
//	    return loadUserFromDB(ctx, id)
//	})
//
// No matter how many goroutines ask for the same id concurrently,
// loadUserFromDB runs at most once per expiry window.
package blitzcache
