package model

// NodeExecutionContext is the ephemeral per-dispatch view handed to a node
// handler. It is built by the scheduler immediately before dispatch and
// discarded after the node completes.
type NodeExecutionContext struct {
	NodeID   string
	NodeName string

	// Config is the node's typed configuration struct (same value as
	// Node.Config); handlers assert it to their own config type.
	Config any

	// Input holds the recorded outputs of this node's completed predecessors,
	// keyed by the producing node's id. Keying by producer id is a contract:
	// downstream nodes such as the comparator look entries up by the id
	// declared in their own configuration.
	Input map[string]map[string]any

	ExecutionID string
	TestID      string
	TestName    string

	// ErrorMessage summarizes the failures recorded so far in this run, for
	// handlers that render it into human-facing text (incident templates).
	ErrorMessage string
}
