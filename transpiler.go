package transpiler

import (
	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
)

type (
	// Spec is the base table from node type name to Handler.
	Spec = engine.Spec

	// Options carries per-call handler overrides.
	Options = engine.Options

	// Handler renders one node type.
	Handler = engine.Handler

	// Recurse renders a child node.
	Recurse = engine.Recurse

	// Data is the context threaded from parent to child.
	Data = engine.Data

	// Error is an engine-detected failure.
	Error = engine.Error

	// ErrorCode categorizes an Error.
	ErrorCode = engine.ErrorCode

	// Node is the generic structural node.
	Node = ast.Node
)

var (
	// Inherit leaves context data unspecified.
	Inherit = engine.Inherit

	// NoData is the explicit absence of context data.
	NoData = engine.NoData
)

const (
	ErrCodeInvalidNode     = engine.ErrCodeInvalidNode
	ErrCodeUnknownNodeType = engine.ErrCodeUnknownNodeType
)

// DataOf wraps v as present context data.
func DataOf(v any) Data { return engine.DataOf(v) }

// N builds a Node from a type name and alternating field keys and values.
func N(name string, fields ...any) Node { return ast.N(name, fields...) }

// IsInvalidNode reports whether err is an INVALID_NODE error.
func IsInvalidNode(err error) bool { return engine.IsInvalidNode(err) }

// IsUnknownNodeType reports whether err is an UNKNOWN_NODE_TYPE error.
func IsUnknownNodeType(err error) bool { return engine.IsUnknownNodeType(err) }

// Transpiler renders a tree of nodes.
type Transpiler interface {
	Transpile(node any, data Data, opts Options) (any, error)
}

// Constructor builds a Transpiler from a Spec.
type Constructor func(spec Spec) Transpiler

// Library builds Transpilers through a Constructor.
type Library struct {
	construct Constructor
}

// NewLibrary creates a Library. A nil construct uses the default engine.
func NewLibrary(construct Constructor) *Library {
	if construct == nil {
		construct = defaultConstructor
	}
	return &Library{construct: construct}
}

// Create hands spec to the Library's Constructor unchanged. The spec is
// not validated; unknown or malformed nodes are reported by Transpile.
func (l *Library) Create(spec Spec) Transpiler {
	return l.construct(spec)
}

var defaultLibrary = NewLibrary(nil)

// Create builds a Transpiler over spec with the default engine.
func Create(spec Spec) Transpiler {
	return defaultLibrary.Create(spec)
}

func defaultConstructor(spec Spec) Transpiler {
	return engine.New(spec)
}
