package codec

import "fmt"

// LimitCodec wraps another codec and rejects oversized payloads at Decode
// time, before Inner ever sees them. Encode is forwarded unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: a provider shared with other writers (a Redis keyspace other
// replicas or services can touch) where an unexpectedly large entry should
// count as a miss-and-recompute rather than be unmarshalled.
type LimitCodec[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner interface {
		Encode(V) ([]byte, error)
		Decode([]byte) (V, error)
	}
	// MaxDecode is the maximum permitted payload length in bytes for
	// Decode.
	MaxDecode int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
