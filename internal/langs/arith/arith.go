// Package arith renders a small expression language back to source text.
//
// Node types:
//
//	PROGRAM    statements: []node
//	RETURN     expression: string | EXPRESSION (optional)
//	EXPRESSION left: string | EXPRESSION, right: []OPERATION
//	OPERATION  operator: string, operand: string
//
// Expressions are always parenthesized, so "return (6 + 4) / 2;" renders as
// "return ((6 + 4) / 2);". PROGRAM joins statements with the context
// field "separator", empty by default.
package arith

import (
	"fmt"
	"strings"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
)

// Node type names.
const (
	NodeProgram    = "PROGRAM"
	NodeReturn     = "RETURN"
	NodeExpression = "EXPRESSION"
	NodeOperation  = "OPERATION"
)

// Spec returns the handler table for the language.
func Spec() engine.Spec {
	return engine.Spec{Nodes: map[string]engine.Handler{
		NodeProgram:    renderProgram,
		NodeReturn:     renderReturn,
		NodeExpression: renderExpression,
		NodeOperation:  renderOperation,
	}}
}

func renderProgram(node any, recurse engine.Recurse, data engine.Data, _ engine.Recurse) (any, error) {
	n, err := asNode(node)
	if err != nil {
		return nil, err
	}

	sep := ""
	if v, ok := data.Get("separator"); ok {
		sep = fmt.Sprint(v)
	}

	parts := make([]string, 0, len(n.List("statements")))
	for _, stmt := range n.List("statements") {
		out, err := text(recurse(stmt, engine.Inherit))
		if err != nil {
			return nil, err
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, sep), nil
}

func renderReturn(node any, recurse engine.Recurse, _ engine.Data, _ engine.Recurse) (any, error) {
	n, err := asNode(node)
	if err != nil {
		return nil, err
	}

	expr := n.Field("expression")
	if expr == nil || expr == "" {
		return "return;", nil
	}
	out, err := text(recurse(expr, engine.Inherit))
	if err != nil {
		return nil, err
	}
	return "return " + out + ";", nil
}

func renderExpression(node any, recurse engine.Recurse, _ engine.Data, _ engine.Recurse) (any, error) {
	n, err := asNode(node)
	if err != nil {
		return nil, err
	}

	if n.Field("left") == nil {
		return nil, fmt.Errorf("arith: EXPRESSION needs a left operand")
	}
	left, err := text(recurse(n.Field("left"), engine.Inherit))
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("(")
	b.WriteString(left)
	for _, op := range n.List("right") {
		out, err := text(recurse(op, engine.Inherit))
		if err != nil {
			return nil, err
		}
		b.WriteString(" ")
		b.WriteString(out)
	}
	b.WriteString(")")
	return b.String(), nil
}

func renderOperation(node any, _ engine.Recurse, _ engine.Data, _ engine.Recurse) (any, error) {
	n, err := asNode(node)
	if err != nil {
		return nil, err
	}
	op, ok := n.String("operator")
	if !ok {
		return nil, fmt.Errorf("arith: OPERATION needs a string operator, got %T", n.Field("operator"))
	}
	return fmt.Sprintf("%s %v", op, n.Field("operand")), nil
}

func asNode(node any) (ast.Node, error) {
	m, ok := ast.AsMap(node)
	if !ok {
		return nil, fmt.Errorf("arith: expected a map node, got %T", node)
	}
	return ast.Node(m), nil
}

// text converts a recursion result to source text. Numeric leaves decoded
// from JSON or YAML are formatted with %v.
func text(v any, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}
