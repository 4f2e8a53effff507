package dag

import (
	"fmt"

	"github.com/vk/probegrid/internal/model"
)

// GraphError reports a structural violation in a test definition. It is
// always fatal for the whole run: no node executes after one is returned.
type GraphError struct {
	Reason string
}

func (e *GraphError) Error() string {
	return "invalid test graph: " + e.Reason
}

// Graph is the compiled, validated form of a test's DAG. It is immutable
// after Build returns; the scheduler copies the in-degree counters before
// mutating them.
type Graph struct {
	// Nodes maps node id to its definition.
	Nodes map[string]*model.Node
	// Dependents maps a node id to the ids that depend on it (successors).
	Dependents map[string][]string
	// Deps maps a node id to the ids it depends on (predecessors).
	Deps map[string][]string
	// InDegree holds the number of unmet dependencies per node id.
	InDegree map[string]int
}

// Build compiles and validates the graph of a synthetic test. It returns a
// *GraphError if a node id is duplicated, an edge references an unknown node,
// or the edge set contains a cycle.
func Build(test *model.SyntheticTest) (*Graph, error) {
	g := &Graph{
		Nodes:      make(map[string]*model.Node, len(test.Nodes)),
		Dependents: make(map[string][]string),
		Deps:       make(map[string][]string),
		InDegree:   make(map[string]int, len(test.Nodes)),
	}

	for _, n := range test.Nodes {
		if _, exists := g.Nodes[n.ID]; exists {
			return nil, &GraphError{Reason: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		g.Nodes[n.ID] = n
		g.InDegree[n.ID] = 0
	}

	for _, e := range test.Edges {
		if _, ok := g.Nodes[e.From]; !ok {
			return nil, &GraphError{Reason: fmt.Sprintf("edge references unknown source node %q", e.From)}
		}
		if _, ok := g.Nodes[e.To]; !ok {
			return nil, &GraphError{Reason: fmt.Sprintf("edge references unknown target node %q", e.To)}
		}
		if e.From == e.To {
			return nil, &GraphError{Reason: fmt.Sprintf("self-referential edge on node %q", e.From)}
		}
		if containsID(g.Dependents[e.From], e.To) {
			// Duplicate edges are tolerated but counted once.
			continue
		}
		g.Dependents[e.From] = append(g.Dependents[e.From], e.To)
		g.Deps[e.To] = append(g.Deps[e.To], e.From)
		g.InDegree[e.To]++
	}

	if err := g.detectCycles(); err != nil {
		return nil, err
	}

	return g, nil
}

// Roots returns every node id with no unmet dependencies, i.e. the first
// wave of a run.
func (g *Graph) Roots() []string {
	var roots []string
	for id, deg := range g.InDegree {
		if deg == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// detectCycles runs a depth-first search over the adjacency list with two
// sets: nodes fully explored (permanent) and nodes on the current recursion
// stack (temporary). Revisiting a temporary node means a cycle.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return &GraphError{Reason: fmt.Sprintf("cycle detected involving node %q", id)}
		}

		temporary[id] = true
		for _, dep := range g.Dependents[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true

		return nil
	}

	for id := range g.Nodes {
		if !permanent[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
