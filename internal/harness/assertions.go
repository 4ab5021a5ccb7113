package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/store"
	"github.com/roach88/transpiler/internal/trace"
)

// AssertionContext gives assertions access to the stored run.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
	RunID string
}

// AssertionError is returned when an assertion fails. It carries the full
// trace for debugging.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []trace.Event
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s%s (%s", ev.Seq, strings.Repeat("  ", ev.Depth), ev.Name, ev.Layer)
			if ev.BaseOnly {
				buf.WriteString(", base-only")
			}
			buf.WriteString(")\n")
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertOutputContains:
			err = assertOutputContains(result, a)
		case AssertStoredRun:
			err = assertStoredRun(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// assertTraceContains checks for a dispatch of the node matching every
// criterion the assertion sets.
func assertTraceContains(events []trace.Event, a Assertion) error {
	for _, e := range events {
		if e.Name != a.Node {
			continue
		}
		if a.Layer != "" && e.Layer != a.Layer {
			continue
		}
		if a.Depth != nil && e.Depth != *a.Depth {
			continue
		}
		if a.BaseOnly != nil && e.BaseOnly != *a.BaseOnly {
			continue
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeContains(a),
		Actual:   "not found in trace",
		Trace:    events,
	}
}

func describeContains(a Assertion) string {
	parts := []string{a.Node}
	if a.Layer != "" {
		parts = append(parts, "layer="+a.Layer)
	}
	if a.Depth != nil {
		parts = append(parts, fmt.Sprintf("depth=%d", *a.Depth))
	}
	if a.BaseOnly != nil {
		parts = append(parts, fmt.Sprintf("base_only=%t", *a.BaseOnly))
	}
	return strings.Join(parts, " ")
}

// assertTraceOrder checks that nodes occur as a subsequence of the trace.
// Other dispatches may appear in between.
func assertTraceOrder(events []trace.Event, a Assertion) error {
	next := 0
	for _, e := range events {
		if next < len(a.Nodes) && e.Name == a.Nodes[next] {
			next++
		}
	}
	if next == len(a.Nodes) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: strings.Join(a.Nodes, " -> "),
		Actual:   fmt.Sprintf("matched %d of %d; %s not found after %s", next, len(a.Nodes), a.Nodes[next], matchedPrefix(a.Nodes, next)),
		Trace:    events,
	}
}

func matchedPrefix(nodes []string, n int) string {
	if n == 0 {
		return "start of trace"
	}
	return strings.Join(nodes[:n], " -> ")
}

// assertTraceCount checks the exact number of dispatches of a node.
func assertTraceCount(events []trace.Event, a Assertion) error {
	count := 0
	for _, e := range events {
		if e.Name == a.Node {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s dispatched %d times", a.Node, a.Count),
		Actual:   fmt.Sprintf("%d times", count),
		Trace:    events,
	}
}

func assertOutputContains(result *Result, a Assertion) error {
	if strings.Contains(result.Output, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputContains,
		Expected: fmt.Sprintf("output containing %q", a.Text),
		Actual:   fmt.Sprintf("%q", result.Output),
	}
}

// assertStoredRun reads the run back from the store and compares columns.
// Values are compared by their printed form, so YAML integers match the
// stored event_count.
func assertStoredRun(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("stored_run assertion requires a store")
	}
	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := actx.Store.ReadRun(ctx, actx.RunID)
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredRun,
			Expected: fmt.Sprintf("run %s in store", actx.RunID),
			Actual:   err.Error(),
		}
	}

	var mismatches []string
	for _, col := range ast.SortedKeys(a.Expect) {
		get, ok := storedRunColumns[col]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("unknown column %s", col))
			continue
		}
		want := fmt.Sprint(a.Expect[col])
		got := fmt.Sprint(get(run))
		if want != got {
			mismatches = append(mismatches, fmt.Sprintf("%s = %q, want %q", col, got, want))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}

	return &AssertionError{
		Type:     AssertStoredRun,
		Expected: fmt.Sprintf("%v", a.Expect),
		Actual:   strings.Join(mismatches, "; "),
	}
}
