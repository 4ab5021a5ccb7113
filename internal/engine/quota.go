package engine

import "fmt"

// quota counts handler invocations within one Transpile call and enforces
// the engine's dispatch limit.
//
// A tree built from Go values can contain a cycle (a node listing itself
// as a child); without a limit such a traversal never terminates. Each
// call gets its own quota, so the Engine itself stays stateless.
type quota struct {
	limit   int // 0 means unlimited
	current int
}

func newQuota(limit int) *quota {
	return &quota{limit: limit}
}

// check counts one dispatch of name and fails once the limit is passed.
func (q *quota) check(name string) error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return NewDispatchLimitError(name, q.limit)
	}
	return nil
}

// NewDispatchLimitError creates an Error for a traversal that exceeded the
// dispatch limit at node name.
func NewDispatchLimitError(name string, limit int) *Error {
	return &Error{
		Code:     ErrCodeDispatchLimit,
		Message:  fmt.Sprintf("traversal exceeded %d dispatches", limit),
		NodeName: name,
	}
}

// IsDispatchLimit reports whether err is a DISPATCH_LIMIT_EXCEEDED error.
// Uses errors.As to handle wrapped errors.
func IsDispatchLimit(err error) bool {
	return hasCode(err, ErrCodeDispatchLimit)
}
