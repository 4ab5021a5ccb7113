// Package engine implements the transpiler's dispatch core.
//
// An Engine holds a base Spec, a table from node type name to Handler, and
// renders a tree by handing each node to its handler. Handlers receive two
// recursion callbacks and decide themselves which children to render, in
// which order, how often, and with which context data.
//
// ARCHITECTURE:
//
// Resolution:
// Each node's type name is looked up in the per-call override table first,
// then in the base Spec. A name found in neither fails the whole call with
// an UNKNOWN_NODE_TYPE error.
//
// Recursion:
//   - recurse keeps the current override table for the child and all its
//     descendants.
//   - recurseBase drops it: the child subtree resolves against the base
//     Spec only. An override handler uses it to render a node "as originally
//     specified" and then wrap the result.
//
// Both callbacks return leaves (strings, numbers, booleans; see
// ast.Classify) unchanged without any lookup. Slices and unnamed structs
// are not leaves and fail with INVALID_NODE.
//
// Context data:
// Data travels from parent to child explicitly. Passing Inherit hands the
// child the parent's value itself; DataOf with a map shallow-merges over the
// parent's map; DataOf with anything else replaces it.
//
// The engine is synchronous and holds no per-call state. Traversal order is
// exactly the order in which handlers invoke their callbacks. Independent
// Transpile calls may run concurrently; guarding state shared between
// handlers is up to the handler author.
package engine
