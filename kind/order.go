package kind

import (
	"fmt"

	"github.com/taskforge-dev/taskforge/graph"
)

// Order returns kind names in topological order of kind-dependencies,
// reusing the same graph.VisitPostorder cycle
// detection the task-dependency graph uses.
func Order(kinds map[string]*Kind) ([]string, error) {
	g := graph.New()

	for name := range kinds {
		g = g.AddNode(name)
	}

	for name, k := range kinds {
		for _, dep := range k.KindDependencies {
			if !g.HasNode(dep) {
				return nil, fmt.Errorf("kind %q depends on unknown kind %q", name, dep)
			}

			g = g.AddEdge(name, dep, dep)
		}
	}

	return g.VisitPostorder()
}
