package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/transpiler/internal/ast"
)

// TraceSnapshot is the golden-file form of a scenario outcome.
type TraceSnapshot struct {
	ScenarioName string
	Lang         string
	Output       string
	ErrorCode    string
	Trace        []map[string]any
}

// NewTraceSnapshot builds the snapshot of a result.
func NewTraceSnapshot(name, lang string, result *Result) TraceSnapshot {
	events := make([]map[string]any, len(result.Trace))
	for i, e := range result.Trace {
		ev := map[string]any{
			"seq":   e.Seq,
			"depth": int64(e.Depth),
			"name":  e.Name,
			"layer": e.Layer,
		}
		if e.BaseOnly {
			ev["base_only"] = true
		}
		events[i] = ev
	}
	return TraceSnapshot{
		ScenarioName: name,
		Lang:         lang,
		Output:       result.Output,
		ErrorCode:    result.ErrorCode,
		Trace:        events,
	}
}

// MarshalCanonical encodes the snapshot as canonical JSON.
func (s TraceSnapshot) MarshalCanonical() ([]byte, error) {
	events := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		events[i] = e
	}
	m := map[string]any{
		"scenario_name": s.ScenarioName,
		"lang":          s.Lang,
		"output":        s.Output,
		"trace":         events,
	}
	if s.ErrorCode != "" {
		m["error_code"] = s.ErrorCode
	}
	return ast.MarshalCanonical(m)
}

// RunWithGolden runs a scenario, fails t when the scenario fails, and
// compares its snapshot with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	return AssertGolden(t, scenario.Name, scenario.Lang, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name, lang string, result *Result) error {
	t.Helper()

	data, err := NewTraceSnapshot(name, lang, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
