// Package transpiler renders trees of named nodes through a caller-supplied
// table of handlers.
//
// A Spec maps node type names to Handlers. Create builds a Transpiler from
// a Spec; Transpile walks a tree by dispatching each node to the handler
// for its name, and handlers recurse into their children through the
// callbacks they are given. The package knows nothing about any source or
// target language: every grammar lives in the Spec.
//
// Basic usage:
//
//	t := transpiler.Create(transpiler.Spec{Nodes: map[string]transpiler.Handler{
//	    "RETURN": func(node any, recurse transpiler.Recurse, _ transpiler.Data, _ transpiler.Recurse) (any, error) {
//	        expr, err := recurse(node.(transpiler.Node)["expression"], transpiler.Inherit)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return fmt.Sprintf("return %v;", expr), nil
//	    },
//	}})
//
//	out, err := t.Transpile(transpiler.N("RETURN", "expression", "128"), transpiler.Inherit, transpiler.Options{})
//
// Per-call overrides in Options.Nodes take precedence over the Spec for the
// whole traversal. An overriding handler reaches the Spec's own rendering
// through its fourth argument, which resolves the node and everything below
// it against the Spec alone.
package transpiler
