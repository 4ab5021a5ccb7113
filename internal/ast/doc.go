// Package ast provides the value model for trees handed to the transpiler.
//
// This package imports nothing internal. Every other package that touches
// nodes imports ast, which keeps it the foundational layer.
//
// A tree is built from plain Go values:
//   - Structural nodes: Node, map[string]any, or any type implementing Named.
//     The type name lives under the "name" key (NameField).
//   - Leaves: every other non-nil value. Leaves are treated as already
//     rendered output.
//
// Decoders (DecodeJSON, DecodeYAML, DecodeCUE) normalize objects to Node,
// integers to int64 and all other numbers to float64, so trees loaded from
// any of the supported formats compare equal.
package ast
