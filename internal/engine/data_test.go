package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transpiler/internal/ast"
)

// captureSpec records the Data seen by the ROOT and CHILD handlers. ROOT
// recurses into CHILD with childData.
func captureSpec(childData Data, seen map[string]Data) Spec {
	return Spec{Nodes: map[string]Handler{
		"ROOT": func(node any, recurse Recurse, data Data, _ Recurse) (any, error) {
			seen["ROOT"] = data
			return recurse(ast.N("CHILD"), childData)
		},
		"CHILD": func(node any, _ Recurse, data Data, _ Recurse) (any, error) {
			seen["CHILD"] = data
			return "", nil
		},
	}}
}

func TestData_RootAndChildGrid(t *testing.T) {
	rootCases := []struct {
		name string
		data Data
		want Data
	}{
		{"root unspecified", Inherit, NoData},
		{"root nil", DataOf(nil), DataOf(nil)},
		{"root zero", DataOf(0), DataOf(0)},
		{"root four", DataOf(4), DataOf(4)},
	}
	childCases := []struct {
		name string
		data Data
	}{
		{"child unspecified", Inherit},
		{"child nil", DataOf(nil)},
		{"child zero", DataOf(0)},
		{"child five", DataOf(5)},
	}

	for _, rc := range rootCases {
		for _, cc := range childCases {
			t.Run(rc.name+"/"+cc.name, func(t *testing.T) {
				seen := map[string]Data{}
				_, err := New(captureSpec(cc.data, seen)).Transpile(ast.N("ROOT"), rc.data, Options{})
				require.NoError(t, err)

				assert.Equal(t, rc.want, seen["ROOT"])

				wantChild := cc.data
				if cc.data.IsInherit() {
					wantChild = rc.want
				}
				assert.Equal(t, wantChild, seen["CHILD"])
			})
		}
	}
}

func TestData_StructuredMerge(t *testing.T) {
	seen := map[string]Data{}
	spec := captureSpec(DataOf(map[string]any{"b": 3, "c": 4}), seen)

	parent := map[string]any{"a": 1, "b": 2}
	_, err := New(spec).Transpile(ast.N("ROOT"), DataOf(parent), Options{})
	require.NoError(t, err)

	got, ok := seen["CHILD"].Map()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, got)

	// Neither input is mutated.
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, parent)
}

func TestData_InheritIsIdentity(t *testing.T) {
	seen := map[string]Data{}
	parent := map[string]any{"a": 1}

	_, err := New(captureSpec(Inherit, seen)).Transpile(ast.N("ROOT"), DataOf(parent), Options{})
	require.NoError(t, err)

	got, ok := seen["CHILD"].Map()
	require.True(t, ok)

	// The same map value, not a copy.
	got["marker"] = true
	assert.Equal(t, true, parent["marker"])
}

func TestData_NonStructuredReplaces(t *testing.T) {
	tests := []struct {
		name   string
		parent Data
		next   Data
		want   Data
	}{
		{"nil replaces map", DataOf(map[string]any{"a": 1}), DataOf(nil), DataOf(nil)},
		{"number replaces map", DataOf(map[string]any{"a": 1}), DataOf(7), DataOf(7)},
		{"string replaces number", DataOf(7), DataOf("x"), DataOf("x")},
		{"map over number starts fresh", DataOf(7), DataOf(map[string]any{"k": "v"}), DataOf(map[string]any{"k": "v"})},
		{"map over nothing", NoData, DataOf(map[string]any{"k": "v"}), DataOf(map[string]any{"k": "v"})},
		{"explicit none", DataOf(1), NoData, NoData},
		{"inherit from nothing", NoData, Inherit, NoData},
		{"nil map replaces", DataOf(map[string]any{"a": 1}), DataOf(map[string]any(nil)), DataOf(map[string]any(nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, childData(tt.parent, tt.next))
		})
	}
}

func TestData_MergeKeepsOverlayType(t *testing.T) {
	parent := DataOf(map[string]any{"a": 1})

	merged := childData(parent, DataOf(ast.Node{"b": 2}))
	node, ok := merged.Value().(ast.Node)
	require.True(t, ok)
	assert.Equal(t, ast.Node{"a": 1, "b": 2}, node)

	merged = childData(DataOf(ast.Node{"a": 1}), DataOf(map[string]any{"b": 2}))
	plain, ok := merged.Value().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, plain)
}

func TestData_MergeAccumulatesAcrossLevels(t *testing.T) {
	var leafData Data
	spec := Spec{Nodes: map[string]Handler{
		"A": func(node any, recurse Recurse, _ Data, _ Recurse) (any, error) {
			return recurse(ast.N("B"), DataOf(map[string]any{"b": "from A"}))
		},
		"B": func(node any, recurse Recurse, _ Data, _ Recurse) (any, error) {
			return recurse(ast.N("C"), DataOf(map[string]any{"c": "from B"}))
		},
		"C": func(_ any, _ Recurse, data Data, _ Recurse) (any, error) {
			leafData = data
			return "", nil
		},
	}}

	_, err := New(spec).Transpile(ast.N("A"), DataOf(map[string]any{"root": true}), Options{})
	require.NoError(t, err)

	got, ok := leafData.Map()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"root": true, "b": "from A", "c": "from B"}, got)
}

func TestData_SiblingsDoNotLeak(t *testing.T) {
	seen := map[string]Data{}
	spec := Spec{Nodes: map[string]Handler{
		"ROOT": func(node any, recurse Recurse, _ Data, _ Recurse) (any, error) {
			if _, err := recurse(ast.N("LEFT"), DataOf(map[string]any{"side": "left"})); err != nil {
				return nil, err
			}
			return recurse(ast.N("RIGHT"), Inherit)
		},
		"LEFT": func(_ any, _ Recurse, data Data, _ Recurse) (any, error) {
			seen["LEFT"] = data
			return "", nil
		},
		"RIGHT": func(_ any, _ Recurse, data Data, _ Recurse) (any, error) {
			seen["RIGHT"] = data
			return "", nil
		},
	}}

	_, err := New(spec).Transpile(ast.N("ROOT"), DataOf(map[string]any{"depth": 0}), Options{})
	require.NoError(t, err)

	_, ok := seen["RIGHT"].Get("side")
	assert.False(t, ok)
	side, _ := seen["LEFT"].Get("side")
	assert.Equal(t, "left", side)
}

func TestData_BaseOnlyCallbackMergesToo(t *testing.T) {
	var got Data
	spec := Spec{Nodes: map[string]Handler{
		"ROOT": func(node any, _ Recurse, _ Data, recurseBase Recurse) (any, error) {
			return recurseBase(ast.N("CHILD"), DataOf(map[string]any{"y": 2}))
		},
		"CHILD": func(_ any, _ Recurse, data Data, _ Recurse) (any, error) {
			got = data
			return "", nil
		},
	}}

	_, err := New(spec).Transpile(ast.N("ROOT"), DataOf(map[string]any{"x": 1}), Options{})
	require.NoError(t, err)

	m, ok := got.Map()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, m)
}

func TestData_Accessors(t *testing.T) {
	assert.True(t, Inherit.IsInherit())
	assert.False(t, Inherit.Present())
	assert.False(t, NoData.IsInherit())
	assert.False(t, NoData.Present())
	assert.True(t, DataOf(nil).Present())
	assert.Nil(t, DataOf(nil).Value())

	_, ok := DataOf(4).Map()
	assert.False(t, ok)
	_, ok = NoData.Get("k")
	assert.False(t, ok)

	v, ok := DataOf(ast.Node{"k": "v"}).Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	assert.Equal(t, "<inherit>", Inherit.String())
	assert.Equal(t, "<none>", NoData.String())
	assert.Equal(t, "4", DataOf(4).String())
}
