package testutil

// DefaultRunID is returned by a FixedIDGenerator built with an empty ID.
const DefaultRunID = "run-test-default"

// FixedIDGenerator returns the same run ID on every call, so stored runs
// and golden traces are byte-identical across test runs.
//
// Stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator for id. An empty id uses
// DefaultRunID.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedIDGenerator{id: id}
}

// Generate implements trace.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
