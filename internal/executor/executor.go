package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/probegrid/internal/collab"
	"github.com/vk/probegrid/internal/ctxlog"
	"github.com/vk/probegrid/internal/dag"
	"github.com/vk/probegrid/internal/metrics"
	"github.com/vk/probegrid/internal/model"
	"github.com/vk/probegrid/internal/registry"
)

// Executor runs synthetic tests. It owns no per-run state; one Executor is
// safe for concurrent use across tests.
type Executor struct {
	registry  *registry.Registry
	incidents collab.IncidentService
	collector *metrics.Collector
}

// New creates an Executor. incidents may be nil (no incident is opened on
// failure) and collector may be nil (no metrics are recorded).
func New(reg *registry.Registry, incidents collab.IncidentService, collector *metrics.Collector) *Executor {
	return &Executor{
		registry:  reg,
		incidents: incidents,
		collector: collector,
	}
}

// ExecuteTest runs one synthetic test end to end and always returns a
// terminal TestExecution: graph validation, wave scheduling, result
// aggregation, and the incident pipeline on failure. Faults inside the
// engine itself are captured into a failed execution rather than escaping.
func (e *Executor) ExecuteTest(ctx context.Context, test *model.SyntheticTest) *model.TestExecution {
	exec := &model.TestExecution{
		ID:          uuid.NewString(),
		TestID:      test.ID,
		Status:      model.StatusPending,
		NodeResults: make(map[string]*model.NodeResult),
	}
	logger := ctxlog.FromContext(ctx).With("test_id", test.ID, "execution_id", exec.ID)
	ctx = ctxlog.WithLogger(ctx, logger)

	graph, err := dag.Build(test)
	if err != nil {
		// Structural errors reject the whole run before any node executes;
		// no incident is opened for a malformed definition.
		logger.Error("Test graph rejected.", "error", err)
		now := time.Now()
		exec.Status = model.StatusFailed
		exec.ErrorMessage = err.Error()
		exec.StartedAt = now
		exec.CompletedAt = now
		e.observeExecution(exec)
		return exec
	}

	logger.Info("🚀 Starting test execution.", "test_name", test.Name, "node_count", len(graph.Nodes))
	exec.Status = model.StatusRunning
	exec.StartedAt = time.Now()

	runCtx := ctx
	if test.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, secondsToDuration(test.TimeoutSeconds))
		defer cancel()
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Scheduler fault.", "panic", r)
				exec.ErrorMessage = fmt.Sprintf("scheduler fault: %v", r)
			}
		}()
		exec.NodeResults = e.runGraph(runCtx, graph, test, exec)
	}()

	e.resolveStatus(runCtx, graph, exec)

	if exec.Status == model.StatusFailed || exec.Status == model.StatusTimeout {
		if exec.ErrorMessage == "" {
			exec.ErrorMessage = failureSummary(exec.NodeResults)
		}
		// The run context may already be expired; the incident call rides on
		// the caller's context instead.
		e.openIncident(ctx, test, exec)
	}

	exec.CompletedAt = time.Now()
	e.observeExecution(exec)
	logger.Info("🏁 Test execution finished.", "status", string(exec.Status), "duration", exec.CompletedAt.Sub(exec.StartedAt))
	return exec
}

// resolveStatus sets the terminal status: timeout or cancelled when the run
// context expired before every node resolved, otherwise failed if any node
// failed and passed if none did. Nodes never dispatched because the deadline
// hit still receive a failed envelope so the result map is complete.
func (e *Executor) resolveStatus(runCtx context.Context, graph *dag.Graph, exec *model.TestExecution) {
	if exec.ErrorMessage != "" && len(exec.NodeResults) == 0 {
		exec.Status = model.StatusFailed
		return
	}

	ctxErr := runCtx.Err()
	if ctxErr != nil && len(exec.NodeResults) < len(graph.Nodes) {
		now := time.Now()
		for id := range graph.Nodes {
			if _, done := exec.NodeResults[id]; !done {
				exec.NodeResults[id] = &model.NodeResult{
					Status:    model.NodeFailed,
					StartTime: now,
					EndTime:   now,
					Output:    map[string]any{},
					Error:     fmt.Sprintf("not executed: %v", ctxErr),
				}
			}
		}
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			exec.Status = model.StatusTimeout
		} else {
			exec.Status = model.StatusCancelled
		}
		return
	}

	exec.Status = finalize(exec.NodeResults)
}

// finalize computes the overall verdict: any failed node fails the test.
func finalize(results map[string]*model.NodeResult) model.TestStatus {
	for _, res := range results {
		if res.Status == model.NodeFailed {
			return model.StatusFailed
		}
	}
	return model.StatusPassed
}

func (e *Executor) observeExecution(exec *model.TestExecution) {
	if e.collector != nil {
		e.collector.ObserveExecution(string(exec.Status), exec.CompletedAt.Sub(exec.StartedAt))
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
