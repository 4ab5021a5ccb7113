package sqlgen

import (
	"fmt"

	"github.com/roach88/transpiler/internal/engine"
)

// LintSpec returns a handler table that renders a query tree to the list
// of portability warnings it triggers. The portable subset avoids NULL
// comparisons and SELECT * so that a query keeps its meaning on stores
// other than SQLite.
//
// Handlers in this table return []string.
func LintSpec() engine.Spec {
	return engine.Spec{Nodes: map[string]engine.Handler{
		NodeSelect:      lintSelect,
		NodeJoin:        lintJoin,
		NodeAnd:         lintAnd,
		NodeEquals:      lintEquals,
		NodeBoundEquals: func(any, engine.Recurse, engine.Data, engine.Recurse) (any, error) { return []string(nil), nil },
	}}
}

// Lint reports the portability warnings for node. An empty result means
// the query is portable.
func Lint(node any) ([]string, error) {
	out, err := engine.New(LintSpec()).Transpile(node, engine.Inherit, engine.Options{})
	if err != nil {
		return nil, err
	}
	warnings, _ := out.([]string)
	return warnings, nil
}

func lintSelect(node any, recurse engine.Recurse, _ engine.Data, _ engine.Recurse) (any, error) {
	var sel selectNode
	if err := decode(NodeSelect, node, &sel); err != nil {
		return nil, err
	}

	var warnings []string
	if len(sel.Bindings) == 0 {
		warnings = append(warnings, fmt.Sprintf("SELECT from %s has no bindings (SELECT *); list the columns explicitly", sel.From))
	}
	return collect(recurse, warnings, sel.Filter)
}

func lintJoin(node any, recurse engine.Recurse, _ engine.Data, _ engine.Recurse) (any, error) {
	var j joinNode
	if err := decode(NodeJoin, node, &j); err != nil {
		return nil, err
	}
	return collect(recurse, nil, j.Left, j.Right, j.On)
}

func lintAnd(node any, recurse engine.Recurse, _ engine.Data, _ engine.Recurse) (any, error) {
	var and andNode
	if err := decode(NodeAnd, node, &and); err != nil {
		return nil, err
	}
	return collect(recurse, nil, and.Predicates...)
}

func lintEquals(node any, _ engine.Recurse, _ engine.Data, _ engine.Recurse) (any, error) {
	var eq equalsNode
	if err := decode(NodeEquals, node, &eq); err != nil {
		return nil, err
	}
	if eq.Value == nil {
		return []string{fmt.Sprintf("field %s compared to NULL; compare against an explicit value", eq.Field)}, nil
	}
	return []string(nil), nil
}

// collect appends the warnings of each non-nil child to warnings.
func collect(recurse engine.Recurse, warnings []string, children ...any) ([]string, error) {
	for _, child := range children {
		if child == nil {
			continue
		}
		out, err := recurse(child, engine.Inherit)
		if err != nil {
			return nil, err
		}
		if w, ok := out.([]string); ok {
			warnings = append(warnings, w...)
		}
	}
	return warnings, nil
}
