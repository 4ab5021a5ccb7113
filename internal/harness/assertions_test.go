package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
	"github.com/roach88/transpiler/internal/store"
	"github.com/roach88/transpiler/internal/trace"
)

func sampleTrace() []trace.Event {
	return []trace.Event{
		{Seq: 1, Depth: 0, Name: "PROGRAM", Layer: "base"},
		{Seq: 2, Depth: 1, Name: "RETURN", Layer: "override"},
		{Seq: 3, Depth: 2, Name: "RETURN", Layer: "base", BaseOnly: true},
		{Seq: 4, Depth: 3, Name: "EXPRESSION", Layer: "base", BaseOnly: true},
	}
}

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func TestAssertTraceContains(t *testing.T) {
	tests := []struct {
		name  string
		a     Assertion
		found bool
	}{
		{name: "by name", a: Assertion{Node: "EXPRESSION"}, found: true},
		{name: "by layer", a: Assertion{Node: "RETURN", Layer: "override"}, found: true},
		{name: "by depth", a: Assertion{Node: "RETURN", Depth: intPtr(2)}, found: true},
		{name: "by base_only", a: Assertion{Node: "RETURN", BaseOnly: boolPtr(true), Layer: "base"}, found: true},
		{name: "missing node", a: Assertion{Node: "OPERATION"}},
		{name: "wrong depth", a: Assertion{Node: "PROGRAM", Depth: intPtr(1)}},
		{name: "wrong combination", a: Assertion{Node: "RETURN", Layer: "override", BaseOnly: boolPtr(true)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.Type = AssertTraceContains
			err := assertTraceContains(sampleTrace(), tt.a)
			if tt.found {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, AssertTraceContains, ae.Type)
			assert.Contains(t, ae.Expected, tt.a.Node)
			assert.Equal(t, "not found in trace", ae.Actual)
		})
	}
}

func TestAssertTraceOrder(t *testing.T) {
	ok := Assertion{Type: AssertTraceOrder, Nodes: []string{"PROGRAM", "EXPRESSION"}}
	assert.NoError(t, assertTraceOrder(sampleTrace(), ok))

	repeated := Assertion{Type: AssertTraceOrder, Nodes: []string{"RETURN", "RETURN"}}
	assert.NoError(t, assertTraceOrder(sampleTrace(), repeated))

	reversed := Assertion{Type: AssertTraceOrder, Nodes: []string{"EXPRESSION", "PROGRAM"}}
	err := assertTraceOrder(sampleTrace(), reversed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPRESSION -> PROGRAM")
	assert.Contains(t, err.Error(), "matched 1 of 2")
}

func TestAssertTraceCount(t *testing.T) {
	assert.NoError(t, assertTraceCount(sampleTrace(), Assertion{Node: "RETURN", Count: 2}))
	assert.NoError(t, assertTraceCount(sampleTrace(), Assertion{Node: "OPERATION", Count: 0}))

	err := assertTraceCount(sampleTrace(), Assertion{Node: "PROGRAM", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROGRAM dispatched 3 times")
	assert.Contains(t, err.Error(), "Actual: 1 times")
}

func TestAssertOutputContains(t *testing.T) {
	r := &Result{Output: "return (2 + 3);"}
	assert.NoError(t, assertOutputContains(r, Assertion{Text: "(2 + 3)"}))

	err := assertOutputContains(r, Assertion{Text: "4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `output containing "4"`)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "x",
		Actual:   "y",
		Trace:    sampleTrace(),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "[1] PROGRAM (base)")
	assert.Contains(t, msg, "[3]     RETURN (base, base-only)")
}

func TestAssertStoredRun(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := store.NewRun("run-1", "arith", ast.N("RETURN", "expression", "1"), engine.Inherit)
	require.NoError(t, err)
	run.SetResult("return 1;", nil)
	require.NoError(t, st.RecordRun(ctx, run, []trace.Event{{Seq: 1, Name: "RETURN", Layer: "base"}}))

	actx := &AssertionContext{Store: st, Ctx: ctx, RunID: "run-1"}

	pass := Assertion{Type: AssertStoredRun, Expect: map[string]any{
		"output":      "return 1;",
		"event_count": 1,
		"error_code":  "",
		"tree_hash":   ast.MustHash(ast.N("RETURN", "expression", "1")),
	}}
	assert.NoError(t, assertStoredRun(actx, pass))

	fail := Assertion{Type: AssertStoredRun, Expect: map[string]any{"output": "return 2;"}}
	err = assertStoredRun(actx, fail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `output = "return 1;", want "return 2;"`)

	missing := &AssertionContext{Store: st, Ctx: ctx, RunID: "run-404"}
	err = assertStoredRun(missing, pass)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run run-404 in store")
}

func TestEvaluateAssertions_CollectsFailures(t *testing.T) {
	result := &Result{Output: "return 1;", Trace: sampleTrace()}
	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Node: "PROGRAM", Count: 1},
		{Type: AssertTraceContains, Node: "OPERATION"},
		{Type: AssertOutputContains, Text: "return 2"},
		{Type: "bogus"},
	}, nil)

	require.Len(t, failures, 3)
	assert.Contains(t, failures[0], "trace_contains")
	assert.Contains(t, failures[1], "output_contains")
	assert.Contains(t, failures[2], `unknown assertion type "bogus"`)
}
