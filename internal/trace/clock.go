package trace

import "sync/atomic"

// Sequencer hands out strictly increasing sequence numbers.
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock for ordering dispatch events.
//
// Every recorded dispatch is stamped with the next value. Sequence numbers
// never come from wall-clock time, so:
//   - the same traversal always numbers its events the same way
//   - stored events sort by seq alone, with no ties
//
// Thread-safety: Clock uses atomic operations and is safe for concurrent
// use. A Transpile call is single-threaded, so in practice one goroutine
// calls Next; the atomic keeps a Recorder shared across concurrent renders
// from handing out a number twice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
// Calls are linearizable: each returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
