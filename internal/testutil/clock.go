// Package testutil provides deterministic clocks for store and harness
// tests.
package testutil

import "sync"

// FixedClock reports a pinned wall-clock time in milliseconds.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu     sync.Mutex
	millis int64
}

// NewFixedClock creates a clock pinned at the given milliseconds.
func NewFixedClock(millis int64) *FixedClock {
	return &FixedClock{millis: millis}
}

// NowMillis returns the pinned time.
func (c *FixedClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.millis
}

// Advance moves the pinned time forward by delta milliseconds.
func (c *FixedClock) Advance(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.millis += delta
}

// TickingClock returns a strictly increasing time on every read, starting
// one past the base. Tests use it when successive events must carry
// distinct timestamps that are still reproducible.
type TickingClock struct {
	mu   sync.Mutex
	base int64
	seq  int64
}

// NewTickingClock creates a ticking clock with the given base time.
func NewTickingClock(base int64) *TickingClock {
	return &TickingClock{base: base}
}

// NowMillis increments and returns the next timestamp.
//
// Monotonic: always returns one more than the previous read.
func (c *TickingClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.base + c.seq
}

// Reset rewinds the clock so the next read returns base+1 again.
func (c *TickingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
