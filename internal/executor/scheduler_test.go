package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/probegrid/internal/model"
)

func TestWaveRunsIndependentNodesConcurrently(t *testing.T) {
	const nap = 150 * time.Millisecond
	reg := newStubRegistry(map[model.NodeType]func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error){
		"nap": func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error) {
			time.Sleep(nap)
			return map[string]any{}, nil
		},
	})

	start := time.Now()
	exec := New(reg, nil, nil).ExecuteTest(context.Background(), &model.SyntheticTest{
		ID:   "parallel",
		Name: "parallel",
		Nodes: []*model.Node{
			stubNode("left", "nap"),
			stubNode("right", "nap"),
		},
	})
	elapsed := time.Since(start)

	require.Equal(t, model.StatusPassed, exec.Status)
	assert.GreaterOrEqual(t, elapsed, nap)
	assert.Less(t, elapsed, 2*nap, "independent roots must run in the same wave, not back to back")
}

func TestInputKeyedByProducerNodeID(t *testing.T) {
	var (
		mu   sync.Mutex
		seen map[string]map[string]any
	)
	reg := newStubRegistry(map[model.NodeType]func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error){
		"left": func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error) {
			return map[string]any{"side": "left"}, nil
		},
		"right": func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error) {
			return map[string]any{"side": "right"}, nil
		},
		"sink": func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error) {
			mu.Lock()
			seen = nc.Input
			mu.Unlock()
			return map[string]any{}, nil
		},
	})

	exec := New(reg, nil, nil).ExecuteTest(context.Background(), &model.SyntheticTest{
		ID:   "fan-in",
		Name: "fan-in",
		Nodes: []*model.Node{
			stubNode("producer_a", "left"),
			stubNode("producer_b", "right"),
			stubNode("consumer", "sink"),
		},
		Edges: []model.Edge{
			{From: "producer_a", To: "consumer"},
			{From: "producer_b", To: "consumer"},
		},
	})

	require.Equal(t, model.StatusPassed, exec.Status)
	require.Len(t, seen, 2)
	assert.Equal(t, "left", seen["producer_a"]["side"])
	assert.Equal(t, "right", seen["producer_b"]["side"])
	assert.NotContains(t, seen, "consumer", "a node never sees its own output as input")
}

func TestOnlyDirectDependenciesAppearInInput(t *testing.T) {
	var (
		mu   sync.Mutex
		seen map[string]map[string]any
	)
	reg := newStubRegistry(map[model.NodeType]func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error){
		"ok": func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error) {
			return map[string]any{"from": nc.NodeID}, nil
		},
		"sink": func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error) {
			mu.Lock()
			seen = nc.Input
			mu.Unlock()
			return map[string]any{}, nil
		},
	})

	// a -> b -> c: c sees b's output but not the transitive ancestor a.
	exec := New(reg, nil, nil).ExecuteTest(context.Background(), &model.SyntheticTest{
		ID:   "transitive",
		Name: "transitive",
		Nodes: []*model.Node{
			stubNode("a", "ok"),
			stubNode("b", "ok"),
			stubNode("c", "sink"),
		},
		Edges: []model.Edge{
			{From: "a", To: "b"},
			{From: "b", To: "c"},
		},
	})

	require.Equal(t, model.StatusPassed, exec.Status)
	require.Len(t, seen, 1)
	assert.Equal(t, "b", seen["b"]["from"])
	assert.NotContains(t, seen, "a")
}

func TestErrorMessageCarriesUpstreamFailures(t *testing.T) {
	var (
		mu      sync.Mutex
		summary string
	)
	reg := newStubRegistry(map[model.NodeType]func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error){
		"fail": func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error) {
			return nil, errors.New("subscription empty")
		},
		"responder": func(ctx context.Context, nc *model.NodeExecutionContext) (map[string]any, error) {
			mu.Lock()
			summary = nc.ErrorMessage
			mu.Unlock()
			return map[string]any{}, nil
		},
	})

	exec := New(reg, nil, nil).ExecuteTest(context.Background(), &model.SyntheticTest{
		ID:   "summary",
		Name: "summary",
		Nodes: []*model.Node{
			stubNode("probe", "fail"),
			stubNode("alerter", "responder"),
		},
		Edges: []model.Edge{{From: "probe", To: "alerter"}},
	})

	assert.Equal(t, model.StatusFailed, exec.Status)
	assert.Equal(t, "node probe: subscription empty", summary,
		"downstream nodes see the failures recorded before their dispatch")
}

func TestFailureSummary(t *testing.T) {
	t.Run("stable order across several failures", func(t *testing.T) {
		results := map[string]*model.NodeResult{
			"zeta":  {Status: model.NodeFailed, Error: "late"},
			"alpha": {Status: model.NodeFailed, Error: "early"},
			"mid":   {Status: model.NodePassed},
		}
		assert.Equal(t, "node alpha: early; node zeta: late", failureSummary(results))
	})

	t.Run("empty when nothing failed", func(t *testing.T) {
		results := map[string]*model.NodeResult{
			"a": {Status: model.NodePassed},
		}
		assert.Empty(t, failureSummary(results))
	})
}
