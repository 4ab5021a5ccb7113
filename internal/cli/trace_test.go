package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
	"github.com/roach88/transpiler/internal/store"
	"github.com/roach88/transpiler/internal/trace"
)

// seedStore writes one successful and one failed run.
func seedStore(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()

	ok, err := store.NewRun("run-a", "arith", ast.N("RETURN", "expression", ast.N("EXPRESSION", "left", "1")), engine.Inherit)
	require.NoError(t, err)
	ok.SetResult("return (1)/*EXPRESSION*/;", nil)
	require.NoError(t, st.RecordRun(ctx, ok, []trace.Event{
		{Seq: 1, Depth: 0, Name: "RETURN", Layer: "base"},
		{Seq: 2, Depth: 1, Name: "EXPRESSION", Layer: "override"},
		{Seq: 3, Depth: 2, Name: "EXPRESSION", Layer: "base", BaseOnly: true},
	}))

	failed, err := store.NewRun("run-b", "arith", ast.N("LOOP"), engine.Inherit)
	require.NoError(t, err)
	failed.SetResult("", engine.NewUnknownNodeTypeError("LOOP"))
	require.NoError(t, st.RecordRun(ctx, failed, nil))

	return dbPath
}

func executeTrace(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTrace_MissingDatabaseFlag(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"}, "--run", "run-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTrace_NonExistentDatabase(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", "/nonexistent/path/runs.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_ListRuns(t *testing.T) {
	dbPath := seedStore(t)

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-a  arith    ok       3 events")
	assert.Contains(t, out, "run-b  arith    UNKNOWN_NODE_TYPE   0 events")
}

func TestTrace_ListRunsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestTrace_ListRunsJSON(t *testing.T) {
	dbPath := seedStore(t)

	out, err := executeTrace(t, &RootOptions{Format: "json"}, "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "run-a", resp.Data[0].ID)
	assert.Equal(t, 3, resp.Data[0].EventCount)
	assert.Equal(t, "UNKNOWN_NODE_TYPE", resp.Data[1].ErrorCode)
}

func TestTrace_ShowRun(t *testing.T) {
	dbPath := seedStore(t)

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--run", "run-a")
	require.NoError(t, err)

	assert.Contains(t, out, "Run: run-a (arith)")
	assert.Contains(t, out, "Status: ok")
	assert.Contains(t, out, "  [1] RETURN\n")
	assert.Contains(t, out, "  [2]   EXPRESSION (override)\n")
	assert.Contains(t, out, "  [3]     EXPRESSION (base-only)\n")
	assert.Contains(t, out, "return (1)/*EXPRESSION*/;")
	assert.Contains(t, out, "Overrides:    1")
	assert.Contains(t, out, "Max Depth:    2")
}

func TestTrace_ShowFailedRun(t *testing.T) {
	dbPath := seedStore(t)

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--run", "run-b")
	require.NoError(t, err)
	assert.Contains(t, out, "(no events)")
	assert.Contains(t, out, "=== Error ===")
	assert.Contains(t, out, "[UNKNOWN_NODE_TYPE]")
}

func TestTrace_NodeFilterJSON(t *testing.T) {
	dbPath := seedStore(t)

	out, err := executeTrace(t, &RootOptions{Format: "json"}, "--db", dbPath, "--run", "run-a", "--node", "EXPRESSION")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 2)
	assert.Equal(t, "override", resp.Data.Timeline[0].Layer)
	assert.True(t, resp.Data.Timeline[1].BaseOnly)
	assert.Equal(t, 3, resp.Data.Stats.TotalEvents)
	assert.Equal(t, 1, resp.Data.Stats.BaseOnly)
}

func TestTrace_UnknownRun(t *testing.T) {
	dbPath := seedStore(t)

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--run", "run-z")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, errors.Is(err, store.ErrRunNotFound))
	assert.Contains(t, out, "no run with ID run-z")
}

func TestTrace_ListRunsForTree(t *testing.T) {
	dbPath := seedStore(t)
	hash := ast.MustHash(ast.N("LOOP"))

	out, err := executeTrace(t, &RootOptions{Format: "json"}, "--db", dbPath, "--tree", hash)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-b", resp.Data[0].ID)
	assert.Equal(t, hash, resp.Data[0].TreeHash)

	out, err = executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--tree", "no-such-hash")
	require.NoError(t, err)
	assert.NotContains(t, out, "run-a")
	assert.NotContains(t, out, "run-b")
}

func TestTrace_RunAndTreeExclusive(t *testing.T) {
	dbPath := seedStore(t)

	_, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--run", "run-a", "--tree", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}
