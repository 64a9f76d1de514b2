package optimizer

import (
	"context"

	"github.com/taskforge-dev/taskforge/task"
)

// All removes a task only if every sub-strategy agrees to remove it.
type All struct {
	noopStrategy
	Strategies []Strategy
}

func (a All) ShouldRemoveTask(ctx context.Context, t *task.Task, params Params, arg interface{}) (bool, error) {
	for _, s := range a.Strategies {
		ok, err := s.ShouldRemoveTask(ctx, t, params, arg)
		if err != nil {
			return false, err
		}

		if !ok {
			return false, nil
		}
	}

	return len(a.Strategies) > 0, nil
}

// Any removes a task if at least one sub-strategy agrees.
type Any struct {
	noopStrategy
	Strategies []Strategy
}

func (a Any) ShouldRemoveTask(ctx context.Context, t *task.Task, params Params, arg interface{}) (bool, error) {
	for _, s := range a.Strategies {
		ok, err := s.ShouldRemoveTask(ctx, t, params, arg)
		if err != nil {
			return false, err
		}

		if ok {
			return true, nil
		}
	}

	return false, nil
}

// Not inverts a sub-strategy's removal answer.
type Not struct {
	noopStrategy
	Strategy Strategy
}

func (n Not) ShouldRemoveTask(ctx context.Context, t *task.Task, params Params, arg interface{}) (bool, error) {
	ok, err := n.Strategy.ShouldRemoveTask(ctx, t, params, arg)
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// Alias wraps a strategy under a different registry name, so config can
// reference a pre-configured composite by a single short name.
type Alias struct {
	Name     string
	Strategy Strategy
}

func (a Alias) ShouldRemoveTask(ctx context.Context, t *task.Task, params Params, arg interface{}) (bool, error) {
	return a.Strategy.ShouldRemoveTask(ctx, t, params, arg)
}

func (a Alias) ShouldReplaceTask(ctx context.Context, t *task.Task, params Params, deadline Deadline, arg interface{}) (string, bool, error) {
	return a.Strategy.ShouldReplaceTask(ctx, t, params, deadline, arg)
}
