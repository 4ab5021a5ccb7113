package transpiler

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTranspiler struct {
	spec Spec
}

func (s *stubTranspiler) Transpile(any, Data, Options) (any, error) {
	return "stub", nil
}

func TestLibrary_CreatePassesSpecToConstructor(t *testing.T) {
	handler := func(any, Recurse, Data, Recurse) (any, error) { return "", nil }
	spec := Spec{Nodes: map[string]Handler{"PROGRAM": handler}}

	var calls int
	var received Spec
	lib := NewLibrary(func(s Spec) Transpiler {
		calls++
		received = s
		return &stubTranspiler{spec: s}
	})

	tr := lib.Create(spec)
	require.Equal(t, 1, calls)

	stub, ok := tr.(*stubTranspiler)
	require.True(t, ok)

	// Same map, not a copy.
	assert.Equal(t, reflect.ValueOf(spec.Nodes).Pointer(), reflect.ValueOf(received.Nodes).Pointer())
	assert.Equal(t, reflect.ValueOf(spec.Nodes).Pointer(), reflect.ValueOf(stub.spec.Nodes).Pointer())
}

func TestLibrary_CreateDoesNotValidate(t *testing.T) {
	tr := Create(Spec{})

	_, err := tr.Transpile(N("ANYTHING"), Inherit, Options{})
	assert.True(t, IsUnknownNodeType(err))

	_, err = tr.Transpile(map[string]any{}, Inherit, Options{})
	assert.True(t, IsInvalidNode(err))
}

func TestCreate_EndToEnd(t *testing.T) {
	tr := Create(Spec{Nodes: map[string]Handler{
		"PROGRAM": func(node any, recurse Recurse, _ Data, _ Recurse) (any, error) {
			var out string
			for _, stmt := range node.(Node).List("statements") {
				s, err := recurse(stmt, Inherit)
				if err != nil {
					return nil, err
				}
				out += s.(string)
			}
			return out, nil
		},
		"RETURN": func(node any, recurse Recurse, data Data, _ Recurse) (any, error) {
			expr, err := recurse(node.(Node)["expression"], Inherit)
			if err != nil {
				return nil, err
			}
			indent, _ := data.Get("indent")
			return fmt.Sprintf("%vreturn %v;", indent, expr), nil
		},
	}})

	out, err := tr.Transpile(
		N("PROGRAM", "statements", []any{N("RETURN", "expression", "128")}),
		DataOf(map[string]any{"indent": "  "}),
		Options{},
	)
	require.NoError(t, err)
	assert.Equal(t, "  return 128;", out)
}

func TestCreate_Overrides(t *testing.T) {
	tr := Create(Spec{Nodes: map[string]Handler{
		"X": func(any, Recurse, Data, Recurse) (any, error) { return "base(X)", nil },
	}})

	out, err := tr.Transpile(N("X"), Inherit, Options{Nodes: map[string]Handler{
		"X": func(node any, _ Recurse, _ Data, original Recurse) (any, error) {
			s, err := original(node, Inherit)
			if err != nil {
				return nil, err
			}
			return "override(" + s.(string) + ")", nil
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, "override(base(X))", out)
}

func TestNewLibrary_NilConstructorUsesEngine(t *testing.T) {
	tr := NewLibrary(nil).Create(Spec{Nodes: map[string]Handler{
		"X": func(any, Recurse, Data, Recurse) (any, error) { return "x", nil },
	}})

	out, err := tr.Transpile(N("X"), NoData, Options{})
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}
