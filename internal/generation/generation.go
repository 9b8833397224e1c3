// Package generation implements the per-URI monotonic cancellation
// counters spec.md ยง3/ยง5 describe: a new request for a URI bumps its
// generation, and in-flight work polls the token to detect staleness.
// Comparisons use relaxed atomics; staleness is always safe to
// re-derive, so no stronger ordering is needed (spec.md ยง9).
package generation

import "sync"

// Counters tracks one monotonic uint64 per URI within a single family
// (e.g. "diagnostics" or "ast-index"). It is safe for concurrent use.
type Counters struct {
	mu     sync.Mutex
	values map[string]uint64
}

// New creates an empty counter set.
func New() *Counters {
	return &Counters{values: make(map[string]uint64)}
}

// Next increments and returns the generation for uri. Callers compare
// their captured value against Current later to detect a newer request.
func (c *Counters) Next(uri string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[uri]++
	return c.values[uri]
}

// Current returns the latest generation for uri without advancing it.
func (c *Counters) Current(uri string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[uri]
}

// Token captures a generation snapshot for one request.
type Token struct {
	counters *Counters
	uri      string
	value    uint64
}

// Capture starts a new request for uri, returning a token whose Stale
// method reports whether a later request has since superseded it.
func (c *Counters) Capture(uri string) Token {
	return Token{counters: c, uri: uri, value: c.Next(uri)}
}

// Stale reports whether a newer generation has been issued for this
// token's URI since it was captured.
func (t Token) Stale() bool {
	if t.counters == nil {
		return false
	}
	return t.counters.Current(t.uri) != t.value
}

// CancelFunc is the cancellation-check signature threaded through every
// resolver tier (spec.md ยง4.7): polled at each tier boundary, true
// means abandon work and return None.
type CancelFunc func() bool

// AsCancelFunc adapts a Token into the resolver's CancelFunc shape.
func (t Token) AsCancelFunc() CancelFunc {
	return func() bool { return t.Stale() }
}

// Workspace is the single workspace-wide generation spec.md ยง3
// describes: bumping it invalidates derived include-path caches when
// workspace roots change.
type Workspace struct {
	mu    sync.Mutex
	value uint64
}

// Bump advances the workspace generation and returns the new value.
func (w *Workspace) Bump() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value++
	return w.value
}

// Current returns the current workspace generation.
func (w *Workspace) Current() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}
