package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/transpiler/internal/ast"
)

// Handler renders exactly one node type.
//
// It receives the node, the default recursion callback, the effective
// context data for this node, and the base-only recursion callback. Both
// callbacks are always non-nil. The returned value is opaque to the engine.
type Handler func(node any, recurse Recurse, data Data, recurseBase Recurse) (any, error)

// Recurse renders a child. Pass Inherit to keep the current context data.
// Leaves are returned unchanged.
type Recurse func(child any, data Data) (any, error)

// Spec is the table from node type name to Handler.
type Spec struct {
	Nodes map[string]Handler
}

// Options are per-call settings for Transpile.
type Options struct {
	// Nodes overrides base handlers for the call and every descendant
	// reached through the default recursion callback.
	Nodes map[string]Handler
}

// Engine dispatches nodes to handlers.
//
// INVARIANTS:
//   - the base table never changes after construction
//   - an Engine holds no per-call state; Transpile is reentrant
type Engine struct {
	nodes         map[string]Handler
	logger        *slog.Logger
	observer      Observer
	maxDispatches int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug-level dispatch logs.
// Default: slog.Default() at call time.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver registers an observer notified before each handler call.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithMaxDispatches caps the number of handler invocations in one
// Transpile call. Exceeding it aborts the call with a
// DISPATCH_LIMIT_EXCEEDED error. Default: 0, unlimited.
func WithMaxDispatches(n int) Option {
	return func(e *Engine) {
		e.maxDispatches = n
	}
}

// New creates an Engine over spec.
//
// The handler table is copied so later changes to spec.Nodes cannot alter
// an existing engine. No validation happens here: structural checks run
// per node inside Transpile.
func New(spec Spec, opts ...Option) *Engine {
	nodes := make(map[string]Handler, len(spec.Nodes))
	for name, h := range spec.Nodes {
		nodes[name] = h
	}

	e := &Engine{nodes: nodes}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transpile renders node.
//
// node must be structural; a leaf or nil at the top level is an
// INVALID_NODE error. data seeds the context (Inherit means none was
// given, and the root handler sees NoData). opts.Nodes layers handlers
// over the base Spec for this call.
//
// The call is all-or-nothing: the first engine or handler error aborts the
// traversal and is returned as is.
func (e *Engine) Transpile(node any, data Data, opts Options) (any, error) {
	return e.dispatch(newQuota(e.maxDispatches), node, rootData(data), opts.Nodes, 0, false)
}

// TranspileString is Transpile for specs that render text. The root result
// must be a string or fmt.Stringer.
func (e *Engine) TranspileString(node any, data Data, opts Options) (string, error) {
	out, err := e.Transpile(node, data, opts)
	if err != nil {
		return "", err
	}
	switch v := out.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", &Error{
			Code:    ErrCodeNonStringOutput,
			Message: fmt.Sprintf("root handler returned %T, not string", out),
		}
	}
}

// HasHandler reports whether the base Spec handles name.
func (e *Engine) HasHandler(name string) bool {
	_, ok := e.nodes[name]
	return ok
}

// dispatch resolves and invokes the handler for node.
// overrides is nil once a base-only callback has been taken.
func (e *Engine) dispatch(q *quota, node any, data Data, overrides map[string]Handler, depth int, baseOnly bool) (any, error) {
	name, kind := ast.Classify(node)
	if kind != ast.KindNode {
		return nil, NewInvalidNodeError(node)
	}

	handler, layer, ok := e.resolve(name, overrides)
	if !ok {
		return nil, NewUnknownNodeTypeError(name)
	}
	if err := q.check(name); err != nil {
		return nil, err
	}

	e.log().Debug("dispatching node",
		"node", name,
		"depth", depth,
		"layer", string(layer),
		"base_only", baseOnly,
	)
	if e.observer != nil {
		e.observer.Observe(Dispatch{Name: name, Depth: depth, Layer: layer, BaseOnly: baseOnly})
	}

	recurse := func(child any, next Data) (any, error) {
		if ast.IsLeaf(child) {
			return child, nil
		}
		return e.dispatch(q, child, childData(data, next), overrides, depth+1, baseOnly)
	}
	recurseBase := func(child any, next Data) (any, error) {
		if ast.IsLeaf(child) {
			return child, nil
		}
		return e.dispatch(q, child, childData(data, next), nil, depth+1, true)
	}

	return handler(node, recurse, data, recurseBase)
}

// resolve looks name up in overrides first, then in the base table.
func (e *Engine) resolve(name string, overrides map[string]Handler) (Handler, Layer, bool) {
	if h, ok := overrides[name]; ok && h != nil {
		return h, LayerOverride, true
	}
	if h, ok := e.nodes[name]; ok && h != nil {
		return h, LayerBase, true
	}
	return nil, "", false
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}
