package store

import (
	"fmt"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
)

// ErrCodeHandler is recorded for failures that came from a handler rather
// than the engine.
const ErrCodeHandler = "HANDLER_ERROR"

// Run is one stored Transpile call.
type Run struct {
	ID   string
	Lang string

	// Tree is the input tree as canonical JSON.
	Tree     string
	TreeHash string

	// Data is the root context data as canonical JSON, nil when the call
	// supplied none.
	Data *string

	Output     string
	OutputHash string

	// ErrorCode is the engine error code, ErrCodeHandler, or empty on
	// success.
	ErrorCode    string
	ErrorMessage string

	EventCount int
}

// NewRun captures the inputs of a call. tree and data must be
// representable as canonical JSON.
func NewRun(id, lang string, tree any, data engine.Data) (Run, error) {
	canonical, err := ast.MarshalCanonical(tree)
	if err != nil {
		return Run{}, fmt.Errorf("marshal tree: %w", err)
	}
	hash, err := ast.Hash(tree)
	if err != nil {
		return Run{}, fmt.Errorf("hash tree: %w", err)
	}

	run := Run{
		ID:       id,
		Lang:     lang,
		Tree:     string(canonical),
		TreeHash: hash,
	}
	if data.Present() {
		encoded, err := ast.MarshalCanonical(data.Value())
		if err != nil {
			return Run{}, fmt.Errorf("marshal data: %w", err)
		}
		s := string(encoded)
		run.Data = &s
	}
	return run, nil
}

// SetResult records the outcome of the call.
func (r *Run) SetResult(output string, err error) {
	if err != nil {
		r.ErrorCode = string(engine.CodeOf(err))
		if r.ErrorCode == "" {
			r.ErrorCode = ErrCodeHandler
		}
		r.ErrorMessage = err.Error()
		r.Output = ""
		r.OutputHash = ""
		return
	}
	r.ErrorCode = ""
	r.ErrorMessage = ""
	r.Output = output
	r.OutputHash = ast.OutputHash(output)
}

// Failed reports whether the call returned an error.
func (r Run) Failed() bool {
	return r.ErrorCode != ""
}
