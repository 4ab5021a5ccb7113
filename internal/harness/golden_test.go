package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transpiler/internal/trace"
)

const scenarioDir = "../../testdata/scenarios"

// TestConformance runs every scenario under testdata/scenarios and
// compares its trace with the golden file of the same name.
//
//	go test ./internal/harness -run TestConformance -update
func TestConformance(t *testing.T) {
	scenarios, err := LoadDir(scenarioDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestTraceSnapshot_MarshalCanonical(t *testing.T) {
	result := &Result{
		Output: "return 1;",
		Trace: []trace.Event{
			{Seq: 1, Depth: 0, Name: "RETURN", Layer: "override"},
			{Seq: 2, Depth: 1, Name: "RETURN", Layer: "base", BaseOnly: true},
		},
	}

	data, err := NewTraceSnapshot("snap", "arith", result).MarshalCanonical()
	require.NoError(t, err)

	assert.Equal(t,
		`{"lang":"arith","output":"return 1;","scenario_name":"snap","trace":[`+
			`{"depth":0,"layer":"override","name":"RETURN","seq":1},`+
			`{"base_only":true,"depth":1,"layer":"base","name":"RETURN","seq":2}]}`,
		string(data))
}

func TestTraceSnapshot_ErrorCode(t *testing.T) {
	result := &Result{ErrorCode: "UNKNOWN_NODE_TYPE", Trace: []trace.Event{}}

	data, err := NewTraceSnapshot("failing", "arith", result).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"error_code":"UNKNOWN_NODE_TYPE","lang":"arith","output":"","scenario_name":"failing","trace":[]}`,
		string(data))
}

func TestConformance_ScenarioFilesMatchNames(t *testing.T) {
	scenarios, err := LoadDir(scenarioDir, "")
	require.NoError(t, err)
	for _, s := range scenarios {
		golden := filepath.Join("testdata", "golden", s.Name+".golden")
		assert.FileExists(t, golden)
	}
}
