// Package graph implements the immutable directed graph of labels that
// underlies every phase of generation: reachability, transitive closure,
// topological order, and cycle detection over labeled nodes with named
// edges.
package graph

import (
	"sort"

	"github.com/huandu/go-clone"

	"github.com/taskforge-dev/taskforge/internal/errors"
)

// Label is a non-empty string unique across a graph.
type Label = string

// Edge is one dependency edge, annotated with the edge name a downstream
// transform uses to locate this specific parent.
type Edge struct {
	From Label
	Name string
	To   Label
}

// Graph is an immutable directed graph of labels. Every mutating operation
// returns a new Graph; the receiver is left untouched.
type Graph struct {
	nodes map[Label]struct{}
	// out[from][edgeName] = to
	out map[Label]map[string]Label
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: map[Label]struct{}{},
		out:   map[Label]map[string]Label{},
	}
}

// AddNode returns a graph with label present (a no-op if it already is).
func (g *Graph) AddNode(label Label) *Graph {
	if _, ok := g.nodes[label]; ok {
		return g
	}

	next := g.shallowCopy()
	next.nodes[label] = struct{}{}

	return next
}

// AddEdge returns a graph with an edge from -> to recorded under edgeName.
// It does not check that either endpoint is a node: task/resolve.go adds
// nodes first and validates edge targets before calling this, while the
// optimizer's rewrite points edges at replacement task-ids that are not
// nodes of the graph.
func (g *Graph) AddEdge(from Label, edgeName string, to Label) *Graph {
	next := g.shallowCopy()

	if _, ok := next.out[from]; !ok {
		next.out[from] = map[string]Label{}
	} else {
		// Copy the inner map too so the original graph's edge set for
		// `from` is untouched.
		cp := make(map[string]Label, len(next.out[from])+1)
		for k, v := range next.out[from] {
			cp[k] = v
		}
		next.out[from] = cp
	}

	next.out[from][edgeName] = to

	return next
}

// shallowCopy copies the top-level maps but shares inner edge maps; AddEdge
// deep-copies the one inner map it mutates.
func (g *Graph) shallowCopy() *Graph {
	nodes := make(map[Label]struct{}, len(g.nodes)+1)
	for k := range g.nodes {
		nodes[k] = struct{}{}
	}

	out := make(map[Label]map[string]Label, len(g.out))
	for k, v := range g.out {
		out[k] = v
	}

	return &Graph{nodes: nodes, out: out}
}

// Clone returns a deep, fully independent copy. The optimizer's dependency
// rewrite
// mutates its working copy through RemoveNode/AddEdge in a tight loop, where
// go-clone's deep copy is cheaper to reason about than re-deriving a
// shallow copy at every step.
func (g *Graph) Clone() *Graph {
	return clone.Clone(g).(*Graph)
}

// RemoveNode returns a graph with label and all of its outgoing edges
// removed. Incoming edges from other nodes are left dangling on purpose;
// the optimizer is responsible for rewriting or dropping them before
// removal.
func (g *Graph) RemoveNode(label Label) *Graph {
	next := g.shallowCopy()
	delete(next.nodes, label)
	delete(next.out, label)

	return next
}

// HasNode reports whether label is a node in the graph.
func (g *Graph) HasNode(label Label) bool {
	_, ok := g.nodes[label]
	return ok
}

// Nodes returns every node label, sorted lexicographically for determinism.
func (g *Graph) Nodes() []Label {
	out := make([]Label, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}

	sort.Strings(out)

	return out
}

// Edges returns every edge, sorted by (From, Name, To) for determinism.
func (g *Graph) Edges() []Edge {
	var edges []Edge

	for from, byName := range g.out {
		for name, to := range byName {
			edges = append(edges, Edge{From: from, Name: name, To: to})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}

		if edges[i].Name != edges[j].Name {
			return edges[i].Name < edges[j].Name
		}

		return edges[i].To < edges[j].To
	})

	return edges
}

// LinksDict returns, for each node, the mapping edge-name -> dependency
// label.
func (g *Graph) LinksDict() map[Label]map[string]Label {
	out := make(map[Label]map[string]Label, len(g.nodes))

	for n := range g.nodes {
		byName := g.out[n]
		cp := make(map[string]Label, len(byName))

		for k, v := range byName {
			cp[k] = v
		}

		out[n] = cp
	}

	return out
}

// Dependencies returns the distinct set of labels label depends on
// (the targets of its outgoing edges), sorted.
func (g *Graph) Dependencies(label Label) []Label {
	byName := g.out[label]
	seen := make(map[Label]struct{}, len(byName))

	for _, to := range byName {
		seen[to] = struct{}{}
	}

	out := make([]Label, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}

	sort.Strings(out)

	return out
}

// Dependents returns every node with an outgoing edge to label, sorted.
func (g *Graph) Dependents(label Label) []Label {
	seen := map[Label]struct{}{}

	for from, byName := range g.out {
		for _, to := range byName {
			if to == label {
				seen[from] = struct{}{}
				break
			}
		}
	}

	out := make([]Label, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}

	sort.Strings(out)

	return out
}

// TransitiveClosure returns the set of labels reachable from roots,
// following edges forward, or backward (toward dependents) when reverse is
// true. Roots are always included in the result.
func (g *Graph) TransitiveClosure(roots []Label, reverse bool) map[Label]bool {
	visited := map[Label]bool{}

	var adjacency func(Label) []Label
	if reverse {
		adjacency = g.Dependents
	} else {
		adjacency = g.Dependencies
	}

	var stack []Label
	for _, r := range roots {
		if !visited[r] {
			visited[r] = true
			stack = append(stack, r)
		}
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range adjacency(n) {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	return visited
}

// VisitPostorder returns every node in topological order (dependencies
// before dependents), breaking ties lexicographically by label so results
// are deterministic run-to-run. It fails with a *errors.CycleError if
// the graph has a cycle.
func (g *Graph) VisitPostorder() ([]Label, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	state := make(map[Label]int, len(g.nodes))
	order := make([]Label, 0, len(g.nodes))
	nodes := g.Nodes()

	var stack []Label

	var visit func(Label) error
	visit = func(n Label) error {
		switch state[n] {
		case done:
			return nil
		case visiting:
			cycle := append(append([]Label{}, stack...), n)
			return &errors.CycleError{Cycle: cycle}
		}

		state[n] = visiting
		stack = append(stack, n)

		for _, dep := range g.Dependencies(n) {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[n] = done
		order = append(order, n)

		return nil
	}

	for _, n := range nodes {
		if err := visit(n); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// HasCycle reports whether the graph contains a dependency cycle.
func (g *Graph) HasCycle() bool {
	_, err := g.VisitPostorder()
	return err != nil
}

// Equal reports structural equality: same nodes, same edges.
func (g *Graph) Equal(other *Graph) bool {
	if other == nil {
		return false
	}

	a, b := g.Nodes(), other.Nodes()
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	ea, eb := g.Edges(), other.Edges()
	if len(ea) != len(eb) {
		return false
	}

	for i := range ea {
		if ea[i] != eb[i] {
			return false
		}
	}

	return true
}
