// Package optimizer implements the Optimizer: strategy
// objects, composite combinators, the two built-in strategies, and the
// reverse-topological removal/replacement algorithm with the
// if-dependencies fixpoint.
package optimizer

import (
	"context"

	taskforgeerrors "github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/registry"
	"github.com/taskforge-dev/taskforge/task"
)

// Deadline is the latest expiration time any of a task's dependents
// requires its replacement to outlive.
// Unix seconds; zero means "no constraint".
type Deadline = int64

// Strategy decides whether a task's work can be skipped or substituted.
// Only one of the two
// methods is typically non-trivial per concrete strategy; the other
// returns the zero value.
type Strategy interface {
	// ShouldRemoveTask reports whether t may be dropped from the graph
	// entirely, given arg (the task's `optimization` value for this
	// strategy's name).
	ShouldRemoveTask(ctx context.Context, t *task.Task, params Params, arg interface{}) (bool, error)

	// ShouldReplaceTask returns a task-id to substitute for t, or ("",
	// false, nil) if this strategy has no replacement to offer.
	ShouldReplaceTask(ctx context.Context, t *task.Task, params Params, deadline Deadline, arg interface{}) (string, bool, error)
}

// Params is the subset of Parameters the optimizer consults, kept narrow
// so optimizer doesn't import the params package and strategies stay easy
// to unit test against plain structs.
type Params interface {
	FilesChanged() []string
}

// noopStrategy answers false/false-without-error to both questions;
// embedding it lets a concrete strategy implement only the method it
// cares about.
type noopStrategy struct{}

func (noopStrategy) ShouldRemoveTask(context.Context, *task.Task, Params, interface{}) (bool, error) {
	return false, nil
}

func (noopStrategy) ShouldReplaceTask(context.Context, *task.Task, Params, Deadline, interface{}) (string, bool, error) {
	return "", false, nil
}

// SuiteRegistry maps an optimize_strategies parameter value to a named
// replacement set of strategies. A registered suite is merged over the
// default strategies for the generation that names it, so a project can
// swap out individual strategies without re-declaring the rest.
var SuiteRegistry = registry.New[map[string]Strategy]("optimization-suite")

// WithSuite overlays the named suite (when name is non-empty) onto base.
// An unknown name is an error, matching the fail-fast behavior of every
// other registry lookup.
func WithSuite(base map[string]Strategy, name string) (map[string]Strategy, error) {
	if name == "" {
		return base, nil
	}

	suite, ok := SuiteRegistry.Get(name)
	if !ok {
		return nil, taskforgeerrors.Errorf("optimizer: unknown optimize_strategies suite %q", name)
	}

	merged := make(map[string]Strategy, len(base)+len(suite))
	for k, v := range base {
		merged[k] = v
	}

	for k, v := range suite {
		merged[k] = v
	}

	return merged, nil
}
