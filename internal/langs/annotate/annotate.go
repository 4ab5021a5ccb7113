// Package annotate builds override tables that decorate a base rendering.
//
// Each override renders the node through the base table and substitutes
// the result into a template. Because the base rendering is reached with
// the base-only callback, nodes below an annotated node are not annotated
// again.
//
// Only text is annotated. A base rendering that is not a string or
// fmt.Stringer (a sqlgen SELECT rendered as a JOIN side returns a
// sqlgen.Source) is passed through unchanged, so the parent still gets the
// value it expects.
package annotate

import (
	"fmt"
	"strings"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
)

// Template placeholders.
const (
	PlaceholderType   = "{type}"
	PlaceholderOutput = "{out}"
)

// DefaultFormat tags the rendered output with its node type.
const DefaultFormat = "{out}/*{type}*/"

// Wrap returns overrides for types that render each node through the base
// table and substitute the result into format. An empty format uses
// DefaultFormat.
func Wrap(format string, types ...string) engine.Options {
	if format == "" {
		format = DefaultFormat
	}

	nodes := make(map[string]engine.Handler, len(types))
	for _, name := range types {
		nodes[name] = wrapHandler(format)
	}
	return engine.Options{Nodes: nodes}
}

func wrapHandler(format string) engine.Handler {
	return func(node any, _ engine.Recurse, _ engine.Data, recurseBase engine.Recurse) (any, error) {
		out, err := recurseBase(node, engine.Inherit)
		if err != nil {
			return nil, err
		}
		var text string
		switch v := out.(type) {
		case string:
			text = v
		case fmt.Stringer:
			text = v.String()
		default:
			return out, nil
		}
		name, _ := ast.Classify(node)
		r := strings.NewReplacer(PlaceholderType, name, PlaceholderOutput, text)
		return r.Replace(format), nil
	}
}
