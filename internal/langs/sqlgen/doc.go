// Package sqlgen renders query trees to parameterized SQLite SQL.
//
// Node types:
//
//	SELECT       from, bindings {column: alias}, filter, order_by
//	JOIN         left: SELECT, right: SELECT, on, bindings, order_by
//	AND          predicates: []predicate
//	EQUALS       field, value
//	BOUND_EQUALS field, var
//
// Rendering is driven through context data: the root call carries a
// *Params collector under "params" and the caller's bound variables under
// "bound". Every literal becomes a "?" placeholder whose value is appended
// to the collector, so handlers must recurse in the order their
// placeholders appear in the text. JOIN renders its two sides with
// mode "from", in which a SELECT yields a Source instead of a statement.
//
// Every statement ends in an ORDER BY with an id tiebreaker and
// COLLATE BINARY, so results are deterministic.
//
// Compile is the entry point; it sets up the context data and returns the
// SQL with its parameters. Lint walks the same trees with a second
// handler table and reports constructs outside the portable subset.
package sqlgen
