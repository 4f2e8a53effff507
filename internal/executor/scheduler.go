package executor

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"context"

	"github.com/vk/probegrid/internal/ctxlog"
	"github.com/vk/probegrid/internal/dag"
	"github.com/vk/probegrid/internal/model"
)

// runGraph executes the validated graph wave by wave. All nodes of a wave
// run concurrently and the whole wave is awaited before its dependents are
// considered; a node is dispatched only after every one of its predecessors
// has a recorded result. The results map is only ever written between waves,
// so node handlers never touch shared state.
func (e *Executor) runGraph(ctx context.Context, graph *dag.Graph, test *model.SyntheticTest, exec *model.TestExecution) map[string]*model.NodeResult {
	logger := ctxlog.FromContext(ctx)

	inDegree := make(map[string]int, len(graph.InDegree))
	for id, deg := range graph.InDegree {
		inDegree[id] = deg
	}

	results := make(map[string]*model.NodeResult, len(graph.Nodes))
	ready := graph.Roots()
	sort.Strings(ready)

	wave := 0
	for len(ready) > 0 {
		if ctx.Err() != nil {
			logger.Warn("Run context expired, abandoning remaining waves.", "unresolved", len(graph.Nodes)-len(results))
			break
		}

		logger.Debug("Dispatching wave.", "wave", wave, "nodes", ready)

		outcomes := make([]*model.NodeResult, len(ready))
		var wg sync.WaitGroup
		for i, id := range ready {
			node := graph.Nodes[id]
			nodeCtx := buildNodeContext(graph, node, results, test, exec.ID)

			wg.Add(1)
			go func(slot int, n *model.Node, nc *model.NodeExecutionContext) {
				defer wg.Done()
				outcomes[slot] = e.dispatch(ctx, n, nc)
			}(i, node, nodeCtx)
		}
		wg.Wait()

		var next []string
		for i, id := range ready {
			results[id] = outcomes[i]
			for _, dependent := range graph.Dependents[id] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sort.Strings(next)
		ready = next
		wave++
	}

	return results
}

// buildNodeContext assembles the ephemeral per-dispatch context. Input is
// keyed by the *producing* node's id, so dependents address upstream outputs
// by the ids declared in their own configuration.
func buildNodeContext(graph *dag.Graph, node *model.Node, results map[string]*model.NodeResult, test *model.SyntheticTest, executionID string) *model.NodeExecutionContext {
	input := make(map[string]map[string]any, len(graph.Deps[node.ID]))
	for _, dep := range graph.Deps[node.ID] {
		if res, ok := results[dep]; ok && res.Output != nil {
			input[dep] = res.Output
		}
	}

	return &model.NodeExecutionContext{
		NodeID:       node.ID,
		NodeName:     node.Name,
		Config:       node.Config,
		Input:        input,
		ExecutionID:  executionID,
		TestID:       test.ID,
		TestName:     test.Name,
		ErrorMessage: failureSummary(results),
	}
}

// failureSummary renders the failed results recorded so far into one line
// per node, in stable order.
func failureSummary(results map[string]*model.NodeResult) string {
	var ids []string
	for id, res := range results {
		if res.Status == model.NodeFailed {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("node %s: %s", id, results[id].Error))
	}
	return strings.Join(lines, "; ")
}
