package blitzcache

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A fresh entry was served from the provider.
	Hit(key string)

	// No usable entry; a compute is about to run under the key's lock.
	Miss(key string)

	// The caller-supplied compute returned an error.
	ComputeError(key string, err error)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "expired", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// The idle-eviction cycle reclaimed the key's lock.
	LockEvicted(key string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string)                 {}
func (NopHooks) Miss(string)                {}
func (NopHooks) ComputeError(string, error) {}
func (NopHooks) SelfHeal(string, string)    {}
func (NopHooks) ProviderSetRejected(string) {}
func (NopHooks) LockEvicted(string)         {}
