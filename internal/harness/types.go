package harness

import "github.com/roach88/transpiler/internal/trace"

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when the expect clause and every assertion held.
	Pass bool `json:"pass"`

	RunID  string `json:"run_id"`
	Output string `json:"output"`

	// ErrorCode and ErrorMessage describe a failed traversal. A failed
	// traversal can still pass when the scenario expects that error.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Trace holds the dispatch events in order.
	Trace []trace.Event `json:"trace"`

	// Errors lists the expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []trace.Event{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
