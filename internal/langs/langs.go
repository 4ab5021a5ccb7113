// Package langs is the registry of built-in handler tables.
package langs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
	"github.com/roach88/transpiler/internal/langs/arith"
	"github.com/roach88/transpiler/internal/langs/sqlgen"
)

// Language is a named handler table plus the rendering convention the
// CLI and harness use for it.
type Language struct {
	Name        string
	Description string
	Spec        engine.Spec

	// Render produces the text output for one traversal.
	Render func(eng *engine.Engine, node any, data engine.Data, opts engine.Options) (string, error)

	// Lint reports portability warnings for a tree. Nil when the language
	// has no linter.
	Lint func(node any) ([]string, error)
}

// NodeNames returns the node types the language handles, sorted.
func (l Language) NodeNames() []string {
	names := make([]string, 0, len(l.Spec.Nodes))
	for name := range l.Spec.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownLanguageError is returned by Lookup.
type UnknownLanguageError struct {
	Name string
}

func (e *UnknownLanguageError) Error() string {
	return fmt.Sprintf("unknown language %q (known: %s)", e.Name, strings.Join(Names(), ", "))
}

var registry = map[string]Language{
	"arith": {
		Name:        "arith",
		Description: "arithmetic return statements rendered back to source",
		Spec:        arith.Spec(),
		Render:      renderText,
	},
	"sqlgen": {
		Name:        "sqlgen",
		Description: "query trees rendered to parameterized SQLite SQL",
		Spec:        sqlgen.Spec(),
		Render:      renderSQL,
		Lint:        sqlgen.Lint,
	},
}

// Lookup returns the language registered under name.
func Lookup(name string) (Language, error) {
	l, ok := registry[name]
	if !ok {
		return Language{}, &UnknownLanguageError{Name: name}
	}
	return l, nil
}

// Names returns the registered language names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func renderText(eng *engine.Engine, node any, data engine.Data, opts engine.Options) (string, error) {
	return eng.TranspileString(node, data, opts)
}

// renderSQL prints the statement followed by a comment line holding the
// parameters as canonical JSON.
func renderSQL(eng *engine.Engine, node any, data engine.Data, opts engine.Options) (string, error) {
	q, err := sqlgen.Compile(eng, node, data, opts)
	if err != nil {
		return "", err
	}
	params := q.Params
	if params == nil {
		params = []any{}
	}
	encoded, err := ast.MarshalCanonical(params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return q.SQL + "\n-- params: " + string(encoded), nil
}
