// Package task implements the Task type and the dependency-resolution
// algorithm, building on the graph package's
// cycle-detecting Graph.
package task

// Task is a task as it flows through one kind's transform sequence,
// frozen once the full graph is assembled.
type Task struct {
	Kind        string
	Label       string
	Description string

	// Attributes are free-form, queried by target-tasks-methods, filters,
	// and from-deps grouping.
	Attributes map[string]interface{}

	// Dependencies maps edge-name -> dependency label.
	Dependencies     map[string]string
	SoftDependencies map[string]string
	IfDependencies   []string

	// Optimization is either nil or strategy-name -> arg.
	Optimization map[string]interface{}

	// TaskDefinition is the wire-format payload produced by the "task"
	// built-in transform; empty until that transform runs.
	TaskDefinition map[string]interface{}
}

// Clone returns a Task with its own copies of the mutable maps/slices, the
// way the from-deps and matrix transforms fan a single stub out into many
// Tasks without aliasing each other's state.
func (t *Task) Clone() *Task {
	clone := &Task{
		Kind:        t.Kind,
		Label:       t.Label,
		Description: t.Description,
	}

	clone.Attributes = cloneStringMap(t.Attributes)
	clone.Dependencies = cloneStringStringMap(t.Dependencies)
	clone.SoftDependencies = cloneStringStringMap(t.SoftDependencies)

	if t.IfDependencies != nil {
		clone.IfDependencies = append([]string(nil), t.IfDependencies...)
	}

	clone.Optimization = cloneStringMap(t.Optimization)
	clone.TaskDefinition = cloneStringMap(t.TaskDefinition)

	return clone
}

func cloneStringMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func cloneStringStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}

	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
