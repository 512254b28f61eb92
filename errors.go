package blitzcache

import "github.com/chanido/blitzcache-sub001/lockmap"

// ErrClosed is returned by cache operations after Close has torn down the
// lock registry. Errors from caller-supplied compute functions are never
// wrapped; they propagate unchanged.
var ErrClosed = lockmap.ErrClosed
