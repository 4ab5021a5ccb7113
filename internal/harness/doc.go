// Package harness runs conformance scenarios against the built-in
// languages.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: arith_nested
//	description: "Nested expressions are parenthesized"
//	lang: arith
//	ast:                      # inline tree, or ast_file: trees/nested.json
//	  name: PROGRAM
//	  statements: [...]
//	data: {separator: "\n"}   # optional; "data: null" passes an explicit nil
//	annotate:                 # optional override table
//	  format: "{out}/*{type}*/"
//	  types: [OPERATION]
//	expect:
//	  output: "return ((6 + 4) / 2);"   # or error: UNKNOWN_NODE_TYPE
//	assertions:
//	  - type: trace_order
//	    nodes: [PROGRAM, RETURN, EXPRESSION]
//	  - type: trace_count
//	    node: OPERATION
//	    count: 2
//
// ast_file paths are relative to the scenario file. Unknown keys are
// rejected.
//
// # Assertion Types
//
//   - trace_contains: a dispatch of node, optionally at layer, depth, base_only
//   - trace_order: nodes are dispatched in this relative order
//   - trace_count: node is dispatched exactly count times
//   - output_contains: the rendered output contains text
//   - stored_run: columns of the stored run equal expect
//
// # Deterministic Testing
//
// Every scenario runs on a fresh in-memory store with a
// testutil.DeterministicClock and a fixed run ID, so its trace is
// byte-identical across runs and can be compared against a golden file
// with RunWithGolden.
package harness
