package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transpiler/internal/ast"
)

// returnTree renders to "return (1 + 2);" in three dispatches.
func returnTree() ast.Node {
	return ast.N("RETURN", "expression",
		ast.N("EXPRESSION", "left", "1", "right", []any{ast.N("OPERATION", "operator", "+", "operand", 2)}),
	)
}

func TestQuota_WithinLimit(t *testing.T) {
	eng := New(arithSpec(), WithMaxDispatches(3))

	out, err := eng.Transpile(returnTree(), Inherit, Options{})
	require.NoError(t, err)
	assert.Equal(t, "return (1 + 2);", out)
}

func TestQuota_ExceedsLimit(t *testing.T) {
	var seen []string
	eng := New(arithSpec(),
		WithMaxDispatches(2),
		WithObserver(ObserverFunc(func(d Dispatch) { seen = append(seen, d.Name) })),
	)

	_, err := eng.Transpile(returnTree(), Inherit, Options{})
	require.Error(t, err)
	assert.True(t, IsDispatchLimit(err))
	assert.Equal(t, ErrCodeDispatchLimit, CodeOf(err))

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "OPERATION", engErr.NodeName)
	assert.Equal(t, []string{"RETURN", "EXPRESSION"}, seen, "the dispatch over the limit is not observed")
}

func TestQuota_ResetPerCall(t *testing.T) {
	eng := New(arithSpec(), WithMaxDispatches(3))

	for i := 0; i < 3; i++ {
		_, err := eng.Transpile(returnTree(), Inherit, Options{})
		require.NoError(t, err, "call %d", i)
	}
}

func TestQuota_StopsCyclicTree(t *testing.T) {
	loop := ast.Node{"name": "LOOP"}
	loop["body"] = loop

	spec := Spec{Nodes: map[string]Handler{
		"LOOP": func(node any, recurse Recurse, _ Data, _ Recurse) (any, error) {
			return recurse(node.(ast.Node)["body"], Inherit)
		},
	}}
	eng := New(spec, WithMaxDispatches(100))

	_, err := eng.Transpile(loop, Inherit, Options{})
	require.Error(t, err)
	assert.True(t, IsDispatchLimit(err))
	assert.Contains(t, err.Error(), "traversal exceeded 100 dispatches")
}

func TestQuota_UnlimitedByDefault(t *testing.T) {
	q := newQuota(0)
	for i := 0; i < 10000; i++ {
		require.NoError(t, q.check("X"))
	}
	assert.Equal(t, 10000, q.current)
}
