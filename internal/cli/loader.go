package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
)

// Error codes shared by all commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path not found
	ErrCodeDecodeFailed = "E003" // AST file could not be decoded
	ErrCodeBadData      = "E004" // --data is not valid JSON
	ErrCodeUnknownLang  = "E005" // No language registered under the name
	ErrCodeWriteFailed  = "E006" // Output file write error
	ErrCodeStore        = "E007" // Database open, read or write failed
	ErrCodeTestFailed   = "E008" // One or more scenarios failed
	ErrCodeBadAnnotate  = "E009" // --annotate names a type the language does not handle
)

// LoadError is returned when command input cannot be loaded.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTree reads an AST file. The decoder is chosen by extension.
func LoadTree(path string) (any, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "file not found"}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Path: path, Message: err.Error()}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "is a directory"}
	}

	tree, err := ast.LoadFile(path)
	if err != nil {
		var decErr *ast.DecodeError
		if errors.As(err, &decErr) {
			return nil, &LoadError{Code: ErrCodeDecodeFailed, Path: path, Message: decErr.Error()}
		}
		return nil, &LoadError{Code: ErrCodeGeneric, Path: path, Message: err.Error()}
	}
	return tree, nil
}

// ParseData decodes the --data flag. An empty flag means no context data
// was given; "null" passes an explicit nil.
func ParseData(raw string) (engine.Data, error) {
	if raw == "" {
		return engine.Inherit, nil
	}
	v, err := ast.DecodeJSON([]byte(raw))
	if err != nil {
		return engine.Inherit, &LoadError{Code: ErrCodeBadData, Message: fmt.Sprintf("--data: %v", err)}
	}
	return engine.DataOf(v), nil
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
