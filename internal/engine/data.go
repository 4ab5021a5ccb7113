package engine

import (
	"fmt"

	"github.com/roach88/transpiler/internal/ast"
)

type dataState uint8

const (
	dataInherit dataState = iota
	dataAbsent
	dataPresent
)

// Data is the context value threaded from parent to child during a
// traversal. It distinguishes "not specified" from every real value,
// including nil, 0, false and empty maps.
//
// The zero Data is Inherit.
type Data struct {
	state dataState
	value any
}

var (
	// Inherit leaves the context unspecified. A recursion call passing
	// Inherit hands the child the parent's Data unchanged; a root call
	// passing Inherit starts the traversal with NoData.
	Inherit = Data{}

	// NoData is the explicit absence marker. Handlers receive it when no
	// context was ever supplied.
	NoData = Data{state: dataAbsent}
)

// DataOf wraps v as present context data. v may be nil.
func DataOf(v any) Data {
	return Data{state: dataPresent, value: v}
}

// Present reports whether a value was supplied.
func (d Data) Present() bool {
	return d.state == dataPresent
}

// IsInherit reports whether d is the unspecified marker.
func (d Data) IsInherit() bool {
	return d.state == dataInherit
}

// Value returns the wrapped value, or nil when absent.
func (d Data) Value() any {
	return d.value
}

// Map returns the value as a field map when it is structured.
func (d Data) Map() (map[string]any, bool) {
	if !d.Present() {
		return nil, false
	}
	return ast.AsMap(d.value)
}

// Get returns a field of a structured value.
func (d Data) Get(key string) (any, bool) {
	m, ok := d.Map()
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// String formats d for logs and test failures.
func (d Data) String() string {
	switch d.state {
	case dataInherit:
		return "<inherit>"
	case dataAbsent:
		return "<none>"
	default:
		return fmt.Sprintf("%v", d.value)
	}
}

// rootData resolves the Data given to a top-level Transpile call.
func rootData(d Data) Data {
	if d.IsInherit() {
		return NoData
	}
	return d
}

// childData resolves the Data a child receives from its parent's Data and
// the value passed to the recursion callback.
//
//   - Inherit: parent, unchanged.
//   - structured next: a fresh map of next's type holding the parent's
//     fields (when the parent is structured) overlaid by next's fields.
//   - anything else: next replaces parent.
func childData(parent, next Data) Data {
	if next.IsInherit() {
		return parent
	}
	if !next.Present() {
		return next
	}

	switch overlay := next.value.(type) {
	case ast.Node:
		if overlay == nil {
			return next
		}
		merged := make(ast.Node, len(overlay))
		mergeInto(merged, parent, overlay)
		return DataOf(merged)
	case map[string]any:
		if overlay == nil {
			return next
		}
		merged := make(map[string]any, len(overlay))
		mergeInto(merged, parent, overlay)
		return DataOf(merged)
	default:
		return next
	}
}

func mergeInto(dst map[string]any, parent Data, overlay map[string]any) {
	if base, ok := parent.Map(); ok {
		for k, v := range base {
			dst[k] = v
		}
	}
	for k, v := range overlay {
		dst[k] = v
	}
}
