package ast

import (
	"fmt"
	"reflect"
)

// NameField is the key holding a structural node's type name.
const NameField = "name"

// Node is a structural AST unit keyed by field name.
// The "name" field identifies the node type; all other fields are defined
// by whoever produced the tree.
type Node map[string]any

// Named is implemented by Go types that carry their own node type name.
// It lets callers hand typed structs to the engine instead of maps.
type Named interface {
	NodeName() string
}

// Kind classifies a value handed to the engine.
type Kind int

const (
	// KindInvalid is a nil value or a structural value without a usable name.
	KindInvalid Kind = iota
	// KindNode is a structural value with a type name.
	KindNode
	// KindLeaf is a non-structural value that renders as itself.
	KindLeaf
)

// String returns a lowercase label for the kind.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindLeaf:
		return "leaf"
	default:
		return "invalid"
	}
}

// N builds a Node with the given type name and alternating key/value fields.
//
//	ast.N("RETURN", "expression", "128")
//
// Panics on an odd number of field arguments or a non-string key.
func N(name string, fields ...any) Node {
	if len(fields)%2 != 0 {
		panic(fmt.Sprintf("ast.N(%q): odd number of field arguments", name))
	}
	n := make(Node, len(fields)/2+1)
	n[NameField] = name
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			panic(fmt.Sprintf("ast.N(%q): field key %v is %T, not string", name, fields[i], fields[i]))
		}
		n[key] = fields[i+1]
	}
	return n
}

// Name returns the node's type name, or "" if absent.
func (n Node) Name() string {
	s, _ := n[NameField].(string)
	return s
}

// Field returns the raw value stored under key.
func (n Node) Field(key string) any {
	return n[key]
}

// String returns the field as a string when it holds one.
func (n Node) String(key string) (string, bool) {
	s, ok := n[key].(string)
	return s, ok
}

// List returns the field as a slice of children.
// A missing field yields nil; a single non-slice value yields a
// one-element slice.
func (n Node) List(key string) []any {
	v, ok := n[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []any:
		return list
	case []Node:
		out := make([]any, len(list))
		for i, child := range list {
			out[i] = child
		}
		return out
	default:
		return []any{v}
	}
}

// Classify reports the type name and kind of v.
//
// Structural values are maps with string keys (Node, map[string]any, or
// any other map keyed by a string type) and Named values. A structural
// value whose name is missing, not a string, or empty is KindInvalid, as
// is a nil map or a nil Named pointer.
//
// Strings, booleans and numbers are KindLeaf. Everything else (nil,
// slices, structs and pointers that are not Named, funcs, channels) is
// KindInvalid.
func Classify(v any) (string, Kind) {
	switch n := v.(type) {
	case nil:
		return "", KindInvalid
	case Node:
		return classifyMap(n)
	case map[string]any:
		return classifyMap(n)
	case Named:
		if isNilPointer(v) {
			return "", KindInvalid
		}
		name := n.NodeName()
		if name == "" {
			return "", KindInvalid
		}
		return name, KindNode
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return "", KindLeaf
	case reflect.Map:
		return classifyMapValue(rv)
	default:
		return "", KindInvalid
	}
}

func classifyMap(m map[string]any) (string, Kind) {
	if m == nil {
		return "", KindInvalid
	}
	name, ok := m[NameField].(string)
	if !ok || name == "" {
		return "", KindInvalid
	}
	return name, KindNode
}

// classifyMapValue handles map types other than map[string]any, such as
// map[string]string.
func classifyMapValue(rv reflect.Value) (string, Kind) {
	keyType := rv.Type().Key()
	if keyType.Kind() != reflect.String || rv.IsNil() {
		return "", KindInvalid
	}
	val := rv.MapIndex(reflect.ValueOf(NameField).Convert(keyType))
	if val.IsValid() && val.Kind() == reflect.Interface {
		val = val.Elem()
	}
	if !val.IsValid() || val.Kind() != reflect.String || val.String() == "" {
		return "", KindInvalid
	}
	return val.String(), KindNode
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// IsLeaf reports whether v renders as itself without dispatch.
func IsLeaf(v any) bool {
	_, kind := Classify(v)
	return kind == KindLeaf
}

// AsMap returns the field map of a structural map value.
// Named values and leaves return false.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Node:
		return m, m != nil
	case map[string]any:
		return m, m != nil
	default:
		return nil, false
	}
}
