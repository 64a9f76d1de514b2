package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/graph"
	taskforgeerrors "github.com/taskforge-dev/taskforge/internal/errors"
)

func buildLinear(t *testing.T) *graph.Graph {
	t.Helper()

	g := graph.New().AddNode("hello-a").AddNode("hello-b")
	g = g.AddEdge("hello-b", "edge1", "hello-a")

	return g
}

func TestNoDependenciesAlphabeticalOrder(t *testing.T) {
	t.Parallel()

	g := graph.New().AddNode("c").AddNode("a").AddNode("b")

	order, err := g.VisitPostorder()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDependenciesOrderedBeforeDependents(t *testing.T) {
	t.Parallel()

	g := buildLinear(t)

	order, err := g.VisitPostorder()
	require.NoError(t, err)
	assert.Equal(t, []string{"hello-a", "hello-b"}, order)
}

func TestComplexDagOrderedByLevelAndAlphabetically(t *testing.T) {
	t.Parallel()

	// A, B (no deps); C -> A; D -> A, B; E -> C; F -> C
	g := graph.New()
	for _, n := range []string{"A", "B", "C", "D", "E", "F"} {
		g = g.AddNode(n)
	}

	g = g.AddEdge("C", "dep", "A")
	g = g.AddEdge("D", "dep-a", "A")
	g = g.AddEdge("D", "dep-b", "B")
	g = g.AddEdge("E", "dep", "C")
	g = g.AddEdge("F", "dep", "C")

	order, err := g.VisitPostorder()
	require.NoError(t, err)

	index := func(l string) int {
		for i, n := range order {
			if n == l {
				return i
			}
		}
		return -1
	}

	assert.Less(t, index("A"), index("C"))
	assert.Less(t, index("A"), index("D"))
	assert.Less(t, index("B"), index("D"))
	assert.Less(t, index("C"), index("E"))
	assert.Less(t, index("C"), index("F"))
}

func TestCycleDetected(t *testing.T) {
	t.Parallel()

	g := graph.New().AddNode("a").AddNode("b")
	g = g.AddEdge("a", "edge", "b")
	g = g.AddEdge("b", "edge", "a")

	_, err := g.VisitPostorder()
	require.Error(t, err)

	var cycleErr *taskforgeerrors.CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestTransitiveClosure(t *testing.T) {
	t.Parallel()

	g := graph.New()
	for _, n := range []string{"a", "b", "c", "d"} {
		g = g.AddNode(n)
	}

	g = g.AddEdge("b", "dep", "a")
	g = g.AddEdge("c", "dep", "b")
	// d is disconnected.

	closure := g.TransitiveClosure([]string{"c"}, false)
	assert.True(t, closure["a"])
	assert.True(t, closure["b"])
	assert.True(t, closure["c"])
	assert.False(t, closure["d"])

	reverseClosure := g.TransitiveClosure([]string{"a"}, true)
	assert.True(t, reverseClosure["a"])
	assert.True(t, reverseClosure["b"])
	assert.True(t, reverseClosure["c"])
	assert.False(t, reverseClosure["d"])
}

func TestLinksDict(t *testing.T) {
	t.Parallel()

	g := buildLinear(t)
	links := g.LinksDict()

	assert.Equal(t, map[string]string{"edge1": "hello-a"}, links["hello-b"])
	assert.Empty(t, links["hello-a"])
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	g := buildLinear(t)
	clone := g.Clone()
	clone = clone.RemoveNode("hello-a")

	assert.True(t, g.HasNode("hello-a"), "original graph must be unaffected by mutating the clone")
	assert.False(t, clone.HasNode("hello-a"))
}

func TestEqualIsStructural(t *testing.T) {
	t.Parallel()

	a := buildLinear(t)
	b := graph.New().AddNode("hello-b").AddNode("hello-a").AddEdge("hello-b", "edge1", "hello-a")

	assert.True(t, a.Equal(b))

	c := b.AddNode("hello-c")
	assert.False(t, a.Equal(c))
}
