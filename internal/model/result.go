package model

import "time"

// NodeStatus is the terminal status of a single node execution.
type NodeStatus string

const (
	NodePassed NodeStatus = "passed"
	NodeFailed NodeStatus = "failed"
)

// TestStatus is the overall status of one test execution.
type TestStatus string

const (
	StatusPending   TestStatus = "pending"
	StatusRunning   TestStatus = "running"
	StatusPassed    TestStatus = "passed"
	StatusFailed    TestStatus = "failed"
	StatusTimeout   TestStatus = "timeout"
	StatusCancelled TestStatus = "cancelled"
)

// NodeResult is the uniform envelope every node execution produces,
// regardless of node type and regardless of whether the handler returned an
// error or panicked. Immutable once recorded by the scheduler.
type NodeResult struct {
	Status    NodeStatus
	StartTime time.Time
	EndTime   time.Time
	Output    map[string]any
	Error     string
}

// TestExecution is the full record of one run of a SyntheticTest. It is
// mutated in place by the engine and terminal once CompletedAt is set.
type TestExecution struct {
	ID          string
	TestID      string
	Status      TestStatus
	StartedAt   time.Time
	CompletedAt time.Time

	// NodeResults maps node id to that node's result envelope.
	NodeResults map[string]*NodeResult

	CreatedIncidentID string
	ErrorMessage      string
}

// FailedNodes returns the ids of all nodes recorded as failed, in no
// particular order.
func (e *TestExecution) FailedNodes() []string {
	var failed []string
	for id, res := range e.NodeResults {
		if res.Status == NodeFailed {
			failed = append(failed, id)
		}
	}
	return failed
}
