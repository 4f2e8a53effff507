package model

// SyntheticTest is the immutable definition of one test: a DAG of nodes plus
// scheduling metadata. It is owned by the caller for the duration of a run.
type SyntheticTest struct {
	ID       string
	Name     string
	Nodes    []*Node
	Edges    []Edge
	Enabled  bool
	Schedule string

	// TimeoutSeconds bounds one whole execution of this test. Zero means no
	// engine-wide deadline; individual nodes still carry their own timeouts.
	TimeoutSeconds float64
}

// Node returns the node with the given id, or nil if the test has none.
func (t *SyntheticTest) Node(id string) *Node {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
