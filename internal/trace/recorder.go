package trace

import (
	"sync"

	"github.com/roach88/transpiler/internal/engine"
)

// Event is one recorded dispatch.
type Event struct {
	Seq      int64  `json:"seq"`
	Depth    int    `json:"depth"`
	Name     string `json:"name"`
	Layer    string `json:"layer"`
	BaseOnly bool   `json:"base_only"`
}

// Recorder is an engine.Observer that keeps every dispatch in traversal
// order, stamped by its Sequencer.
//
// Safe for concurrent use, but events from concurrent traversals sharing
// one Recorder interleave.
type Recorder struct {
	mu     sync.Mutex
	clock  Sequencer
	events []Event
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder. A nil clock uses a fresh Clock.
func NewRecorder(clock Sequencer) *Recorder {
	if clock == nil {
		clock = NewClock()
	}
	return &Recorder{clock: clock}
}

// Observe implements engine.Observer.
func (r *Recorder) Observe(d engine.Dispatch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, Event{
		Seq:      r.clock.Next(),
		Depth:    d.Depth,
		Name:     d.Name,
		Layer:    string(d.Layer),
		BaseOnly: d.BaseOnly,
	})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Names returns the node names in dispatch order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}
