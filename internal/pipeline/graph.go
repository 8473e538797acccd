package pipeline

import (
	"context"
	"fmt"
)

// StageFunc is the unit of pipeline work. It reads from the snapshot,
// optionally calls collaborators, and returns a partial state update. A
// returned error is captured by the executor as an ErrorRecord attributed to
// the stage; it never crashes the run.
type StageFunc func(ctx context.Context, view View) (*Update, error)

// Node is one named stage with its declared dependencies.
type Node struct {
	// Name identifies the stage; artifact and metric keys use it.
	Name string

	// Deps lists stages that must complete (successfully or with a captured
	// error) before this one runs.
	Deps []string

	// Run does the stage's work.
	Run StageFunc

	// RunIf, when non-nil, is evaluated against the merged state after all
	// dependencies complete. When it returns false the stage is skipped and
	// counts as completed for its dependents. The write stage uses this to
	// honor the quality gate.
	RunIf func(view View) bool

	// Fatal marks a hard dependency: if this stage fails, the run finishes
	// with phase failed even if the gate is never reached.
	Fatal bool
}

// Graph is a set of nodes with dependency edges. Cycles are rejected at
// validation time, before anything runs.
type Graph struct {
	nodes []Node
	index map[string]int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// Add registers a node. Duplicate names are an error.
func (g *Graph) Add(n Node) error {
	if n.Name == "" {
		return fmt.Errorf("pipeline: node has no name")
	}
	if n.Run == nil {
		return fmt.Errorf("pipeline: node %q has no run function", n.Name)
	}
	if _, exists := g.index[n.Name]; exists {
		return fmt.Errorf("pipeline: duplicate node %q", n.Name)
	}
	g.index[n.Name] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return nil
}

// MustAdd is Add for static graph construction; it panics on error.
func (g *Graph) MustAdd(n Node) {
	if err := g.Add(n); err != nil {
		panic(err)
	}
}

// Validate checks that every declared dependency exists and that the graph is
// acyclic. Executors call it before running; callers may call it earlier to
// fail fast at construction.
func (g *Graph) Validate() error {
	for _, n := range g.nodes {
		for _, dep := range n.Deps {
			if _, ok := g.index[dep]; !ok {
				return fmt.Errorf("pipeline: node %q depends on unknown node %q", n.Name, dep)
			}
		}
	}

	// Kahn's algorithm: if not every node can be ordered, there is a cycle.
	indegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n.Name] += 0
		for _, dep := range n.Deps {
			indegree[n.Name]++
			dependents[dep] = append(dependents[dep], n.Name)
		}
	}

	queue := make([]string, 0, len(g.nodes))
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	ordered := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered++
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if ordered != len(g.nodes) {
		return fmt.Errorf("pipeline: dependency cycle detected")
	}
	return nil
}

// Nodes returns the registered nodes in declaration order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}
