package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
	"github.com/roach88/transpiler/internal/langs"
	"github.com/roach88/transpiler/internal/langs/annotate"
	"github.com/roach88/transpiler/internal/store"
)

// Scenario is one conformance case: a tree, the language that renders it,
// and what the rendering must produce.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Lang names a registered language.
	Lang string `yaml:"lang"`

	// AST is the inline input tree. Exactly one of AST and ASTFile is set.
	AST yaml.Node `yaml:"ast,omitempty"`

	// ASTFile is a .json, .yaml or .cue tree, relative to the scenario
	// file once loaded.
	ASTFile string `yaml:"ast_file,omitempty"`

	// Data is the root context data. Absent means unspecified; an explicit
	// null is passed as a nil value.
	Data yaml.Node `yaml:"data,omitempty"`

	// Annotate wraps the listed node types through the base table.
	Annotate *Annotate `yaml:"annotate,omitempty"`

	// MaxDispatches caps handler invocations for the run. 0 is unlimited.
	MaxDispatches int `yaml:"max_dispatches,omitempty"`

	// RunID fixes the stored run ID. Defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	Expect     *Expect     `yaml:"expect,omitempty"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Annotate configures annotate.Wrap.
type Annotate struct {
	Format string   `yaml:"format,omitempty"`
	Types  []string `yaml:"types"`
}

// Expect is the expected outcome. Output and Error are mutually exclusive.
type Expect struct {
	Output *string `yaml:"output,omitempty"`

	// Error is an engine error code such as UNKNOWN_NODE_TYPE, or
	// store.ErrCodeHandler for handler failures.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace, the output or the stored run.
type Assertion struct {
	Type string `yaml:"type"`

	// Node is used by trace_contains and trace_count.
	Node string `yaml:"node,omitempty"`

	// Nodes is the expected relative order (trace_order).
	Nodes []string `yaml:"nodes,omitempty"`

	// Count is the exact number of dispatches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Layer, Depth and BaseOnly narrow trace_contains.
	Layer    string `yaml:"layer,omitempty"`
	Depth    *int   `yaml:"depth,omitempty"`
	BaseOnly *bool  `yaml:"base_only,omitempty"`

	// Text is the expected substring (output_contains).
	Text string `yaml:"text,omitempty"`

	// Expect maps stored run columns to values (stored_run).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains  = "trace_contains"
	AssertTraceOrder     = "trace_order"
	AssertTraceCount     = "trace_count"
	AssertOutputContains = "output_contains"
	AssertStoredRun      = "stored_run"
)

// LoadScenario reads and parses a scenario file. ast_file is resolved
// against the scenario's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.ASTFile != "" && !filepath.IsAbs(s.ASTFile) {
		s.ASTFile = filepath.Join(filepath.Dir(path), s.ASTFile)
	}
	return s, nil
}

// ParseScenario parses and validates scenario YAML. Relative ast_file
// paths are left untouched.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadDir loads every .yaml and .yml scenario in dir, sorted by file
// name. A non-empty pattern keeps only scenarios whose name matches it
// (filepath.Match syntax).
func LoadDir(dir, pattern string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var scenarios []*Scenario
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		if pattern != "" {
			ok, err := filepath.Match(pattern, s.Name)
			if err != nil {
				return nil, fmt.Errorf("bad filter %q: %w", pattern, err)
			}
			if !ok {
				continue
			}
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Tree returns the decoded input tree.
func (s *Scenario) Tree() (any, error) {
	if s.ASTFile != "" {
		return ast.LoadFile(s.ASTFile)
	}
	return ast.DecodeYAMLNode(&s.AST)
}

// ContextData returns the root context data.
func (s *Scenario) ContextData() (engine.Data, error) {
	if s.Data.Kind == 0 {
		return engine.Inherit, nil
	}
	v, err := ast.DecodeYAMLNode(&s.Data)
	if err != nil {
		return engine.Inherit, fmt.Errorf("data: %w", err)
	}
	return engine.DataOf(v), nil
}

// Options returns the override table for the scenario.
func (s *Scenario) Options() engine.Options {
	if s.Annotate == nil {
		return engine.Options{}
	}
	return annotate.Wrap(s.Annotate.Format, s.Annotate.Types...)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Lang == "" {
		return fmt.Errorf("lang is required")
	}
	if _, err := langs.Lookup(s.Lang); err != nil {
		return err
	}

	hasInline := s.AST.Kind != 0
	switch {
	case hasInline && s.ASTFile != "":
		return fmt.Errorf("ast and ast_file are mutually exclusive")
	case !hasInline && s.ASTFile == "":
		return fmt.Errorf("one of ast or ast_file is required")
	}

	if s.MaxDispatches < 0 {
		return fmt.Errorf("max_dispatches must not be negative")
	}

	if s.Annotate != nil && len(s.Annotate.Types) == 0 {
		return fmt.Errorf("annotate: types list is required and must be non-empty")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	if s.Expect != nil {
		if s.Expect.Output != nil && s.Expect.Error != "" {
			return fmt.Errorf("expect: output and error are mutually exclusive")
		}
		if s.Expect.Output == nil && s.Expect.Error == "" {
			return fmt.Errorf("expect: one of output or error is required")
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for trace_contains", index)
		}
		if a.Layer != "" && a.Layer != string(engine.LayerBase) && a.Layer != string(engine.LayerOverride) {
			return fmt.Errorf("assertions[%d]: layer must be %q or %q", index, engine.LayerBase, engine.LayerOverride)
		}
	case AssertTraceOrder:
		if len(a.Nodes) == 0 {
			return fmt.Errorf("assertions[%d]: nodes list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertOutputContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for output_contains", index)
		}
	case AssertStoredRun:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for stored_run", index)
		}
		for col := range a.Expect {
			if _, ok := storedRunColumns[col]; !ok {
				return fmt.Errorf("assertions[%d]: unknown stored_run column %q", index, col)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// storedRunColumns maps the columns stored_run may check to their values.
var storedRunColumns = map[string]func(store.Run) any{
	"lang":          func(r store.Run) any { return r.Lang },
	"output":        func(r store.Run) any { return r.Output },
	"output_hash":   func(r store.Run) any { return r.OutputHash },
	"tree_hash":     func(r store.Run) any { return r.TreeHash },
	"error_code":    func(r store.Run) any { return r.ErrorCode },
	"error_message": func(r store.Run) any { return r.ErrorMessage },
	"event_count":   func(r store.Run) any { return r.EventCount },
}
