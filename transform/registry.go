package transform

import (
	"strings"

	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/registry"
)

// GroupByFunc implements one from-deps grouping strategy: given the full set of already-loaded
// kind-dependency Tasks, it partitions their labels into groups.
type GroupByFunc func(cfg *Config) [][]string

// RunUsingFunc implements one `run-using` value: it takes the high-level `run:` stanza and returns the
// concrete command, environment, and fetches to embed in the stub.
type RunUsingFunc func(cfg *Config, run map[string]interface{}) (map[string]interface{}, error)

// FuncRegistry resolves a Kind's ordered transform-references to the
// Func that implements them. Transforms are user-authored, so this core
// only ships the built-ins under their canonical
// references; a project's own transform modules register under whatever
// reference their config.yml `taskgraph.register` entry names, the same
// write-once discipline GroupByRegistry and RunUsingRegistry follow.
var FuncRegistry = registry.New[Func]("transform")

// GroupByRegistry and RunUsingRegistry are the process-wide, write-once
// registries for these two extension points; loaders,
// morphs, optimization strategies, target-tasks-methods, and filters have
// their own registries in the kind, morph, optimizer, and generator
// packages respectively, each scoped to the package that consumes it.
var (
	GroupByRegistry  = registry.New[GroupByFunc]("group-by")
	RunUsingRegistry = registry.New[RunUsingFunc]("run-using")
)

// Built-in transform references, the ones the Default loader's
// withDefaultTransforms prepend/append (kind/kind.go) and the ones a
// kind.yml may opt into explicitly.
const (
	RefRun         = "taskforge.transforms.run:transforms"
	RefTask        = "taskforge.transforms.task:transforms"
	RefMatrix      = "taskforge.transforms.matrix:transforms"
	RefChunking    = "taskforge.transforms.chunking:transforms"
	RefFromDeps    = "taskforge.transforms.from_deps:transforms"
	RefNotify      = "taskforge.transforms.notify:transforms"
	RefCachedTasks = "taskforge.transforms.cached_tasks:transforms"
	RefTaskContext = "taskforge.transforms.task_context:transforms"
)

func init() {
	GroupByRegistry.Register("single", groupBySingle)
	GroupByRegistry.Register("all", groupByAll)

	RunUsingRegistry.Register("bash-script", runUsingBashScript)
	RunUsingRegistry.Register("run-task", runUsingRunTask)

	FuncRegistry.Register(RefRun, Run())
	FuncRegistry.Register(RefTask, Task())
	FuncRegistry.Register(RefMatrix, Matrix(nil))
	FuncRegistry.Register(RefChunking, Chunking(nil))
	FuncRegistry.Register(RefFromDeps, FromDeps())
	FuncRegistry.Register(RefNotify, Notify())
	FuncRegistry.Register(RefCachedTasks, CachedTasks("cached-tasks"))
	FuncRegistry.Register(RefTaskContext, TaskContext(nil))
}

// Resolve turns an ordered list of transform-references into a runnable
// Sequence, failing with a *errors.LoaderError naming the
// unresolved reference.
func Resolve(name string, refs []string) (Sequence, error) {
	steps := make([]Func, 0, len(refs))

	for _, ref := range refs {
		// A bare module reference defaults to its "transforms" object.
		if !strings.Contains(ref, ":") {
			ref += ":transforms"
		}

		fn, ok := FuncRegistry.Get(ref)
		if !ok {
			return Sequence{}, unresolvedRef(name, ref)
		}

		steps = append(steps, fn)
	}

	return Sequence{Name: name, Steps: steps}, nil
}

func unresolvedRef(kindName, ref string) error {
	return &errors.LoaderError{Kind: kindName, Reason: "unknown transform reference " + ref}
}
