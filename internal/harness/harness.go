package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/transpiler/internal/engine"
	"github.com/roach88/transpiler/internal/langs"
	"github.com/roach88/transpiler/internal/store"
	"github.com/roach88/transpiler/internal/testutil"
	"github.com/roach88/transpiler/internal/trace"
)

// Harness executes one scenario with deterministic helpers.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    *testutil.FixedIDGenerator
	logger *slog.Logger
}

// Run executes a scenario and evaluates it.
//
// Each scenario runs against a fresh in-memory store. The returned error
// covers setup failures (unreadable tree, store errors); a traversal that
// fails, or an output that does not match, is reported through Result.
//
// Execution flow:
//  1. Decode the tree, context data and overrides
//  2. Render through the scenario's language with a trace Recorder attached
//  3. Record the run and its events in the store
//  4. Check the expect clause and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		ids:    testutil.NewFixedIDGenerator(scenario.RunID),
		logger: testutil.DiscardLogger(),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	lang, err := langs.Lookup(scenario.Lang)
	if err != nil {
		return nil, err
	}
	tree, err := scenario.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}
	data, err := scenario.ContextData()
	if err != nil {
		return nil, err
	}

	recorder := trace.NewRecorder(h.clock)
	eng := engine.New(lang.Spec,
		engine.WithObserver(recorder),
		engine.WithLogger(h.logger),
		engine.WithMaxDispatches(scenario.MaxDispatches),
	)

	output, renderErr := lang.Render(eng, tree, data, scenario.Options())

	run, err := store.NewRun(h.ids.Generate(), lang.Name, tree, data)
	if err != nil {
		return nil, err
	}
	run.SetResult(output, renderErr)
	events := recorder.Events()
	if err := h.store.RecordRun(ctx, run, events); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	h.logger.Debug("scenario rendered",
		"scenario", scenario.Name,
		"events", len(events),
		"error_code", run.ErrorCode,
	)

	result := NewResult()
	result.RunID = run.ID
	result.Output = run.Output
	result.ErrorCode = run.ErrorCode
	result.ErrorMessage = run.ErrorMessage
	result.Trace = events

	checkExpect(result, scenario.Expect)

	actx := &AssertionContext{Store: h.store, Ctx: ctx, RunID: run.ID}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// checkExpect compares the outcome with the expect clause. Without an
// expect clause, any traversal error fails the scenario.
func checkExpect(result *Result, expect *Expect) {
	switch {
	case expect == nil:
		if result.ErrorCode != "" {
			result.AddError(fmt.Sprintf("unexpected error: %s", result.ErrorMessage))
		}
	case expect.Error != "":
		if result.ErrorCode != expect.Error {
			result.AddError(fmt.Sprintf("expected error %s, got %s",
				expect.Error, describeOutcome(result)))
		}
	case expect.Output != nil:
		if result.ErrorCode != "" {
			result.AddError(fmt.Sprintf("expected output %q, got error: %s", *expect.Output, result.ErrorMessage))
		} else if result.Output != *expect.Output {
			result.AddError(fmt.Sprintf("output mismatch:\n  expected: %q\n  actual:   %q", *expect.Output, result.Output))
		}
	}
}

func describeOutcome(r *Result) string {
	if r.ErrorCode == "" {
		return fmt.Sprintf("success with output %q", r.Output)
	}
	return fmt.Sprintf("%s (%s)", r.ErrorCode, r.ErrorMessage)
}
