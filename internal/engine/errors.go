package engine

import (
	"errors"
	"fmt"
)

// Error is a failure detected by the engine itself.
// Errors returned by handlers are never converted to Error; they propagate
// unchanged.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// NodeName is the offending node type, when known.
	NodeName string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInvalidNode indicates a value without a recognizable type name
	// where a dispatchable node was required.
	ErrCodeInvalidNode ErrorCode = "INVALID_NODE"

	// ErrCodeUnknownNodeType indicates a type name missing from both the
	// override table and the base Spec.
	ErrCodeUnknownNodeType ErrorCode = "UNKNOWN_NODE_TYPE"

	// ErrCodeNonStringOutput indicates TranspileString rendered a root value
	// that is not text.
	ErrCodeNonStringOutput ErrorCode = "NON_STRING_OUTPUT"

	// ErrCodeDispatchLimit indicates a traversal invoked more handlers than
	// the engine's WithMaxDispatches limit allows.
	ErrCodeDispatchLimit ErrorCode = "DISPATCH_LIMIT_EXCEEDED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.NodeName != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.NodeName)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidNodeError creates an Error for a value that is not a node.
func NewInvalidNodeError(v any) *Error {
	return &Error{
		Code:    ErrCodeInvalidNode,
		Message: fmt.Sprintf("invalid AST node provided (%T)", v),
	}
}

// NewUnknownNodeTypeError creates an Error for an unhandled type name.
func NewUnknownNodeTypeError(name string) *Error {
	return &Error{
		Code:     ErrCodeUnknownNodeType,
		Message:  fmt.Sprintf("spec does not define how to handle node %q", name),
		NodeName: name,
	}
}

// IsInvalidNode reports whether err is an INVALID_NODE error.
// Uses errors.As to handle wrapped errors.
func IsInvalidNode(err error) bool {
	return hasCode(err, ErrCodeInvalidNode)
}

// IsUnknownNodeType reports whether err is an UNKNOWN_NODE_TYPE error.
// Uses errors.As to handle wrapped errors.
func IsUnknownNodeType(err error) bool {
	return hasCode(err, ErrCodeUnknownNodeType)
}

// CodeOf returns the engine error code carried by err, or "" when err is
// not an engine error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
