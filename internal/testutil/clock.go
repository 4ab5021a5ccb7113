package testutil

import "sync"

// DeterministicClock is a logical clock for tests that satisfies
// trace.Sequencer.
//
// Unlike trace.Clock, it can be rewound with Reset, so the same scenario
// can run several times against one clock and produce identical seq
// values. Reset has to happen atomically with respect to Next, which a
// lone atomic counter cannot express; a mutex guards both.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock starting at 0.
//
// The first call to Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the sequence number. Never decreases
// between Resets.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
