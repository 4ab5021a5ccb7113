package engine

// Layer names the table a handler was resolved from.
type Layer string

const (
	// LayerOverride is the per-call override table.
	LayerOverride Layer = "override"
	// LayerBase is the engine's base Spec.
	LayerBase Layer = "base"
)

// Dispatch describes one handler invocation.
type Dispatch struct {
	// Name is the node type name.
	Name string

	// Depth is 0 for the root node and grows by one per recursion call.
	Depth int

	// Layer is the table the handler came from.
	Layer Layer

	// BaseOnly is true when the node was reached through a base-only
	// recursion callback somewhere above it.
	BaseOnly bool
}

// Observer is notified before every handler invocation, in traversal order.
// Observers run on the caller's goroutine; an Observer shared by concurrent
// Transpile calls must guard its own state.
type Observer interface {
	Observe(d Dispatch)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(d Dispatch)

// Observe implements Observer.
func (f ObserverFunc) Observe(d Dispatch) {
	f(d)
}

// Observers fans a dispatch out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	list := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return multiObserver(list)
}

type multiObserver []Observer

func (m multiObserver) Observe(d Dispatch) {
	for _, o := range m {
		o.Observe(d)
	}
}
