package sqlgen

import "fmt"

// Error reports a malformed query tree.
type Error struct {
	Node    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sqlgen: %s: %s", e.Node, e.Message)
}

func errorf(node, format string, args ...any) *Error {
	return &Error{Node: node, Message: fmt.Sprintf(format, args...)}
}
