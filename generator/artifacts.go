package generator

import (
	"encoding/json"
	"sort"

	"github.com/wI2L/jsondiff"

	"github.com/taskforge-dev/taskforge/optimizer"
	"github.com/taskforge-dev/taskforge/task"
)

// OptimizationLogEntry is one record of the structured "optimization log"
// artifact.
type OptimizationLogEntry struct {
	Label    string `json:"label"`
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
	Strategy string `json:"strategy,omitempty"`
}

// OptimizationLog converts the optimizer's Decision records into the
// artifact's serializable shape, preserving visit order.
func OptimizationLog(result *optimizer.Result) []OptimizationLogEntry {
	out := make([]OptimizationLogEntry, 0, len(result.Log))

	for _, d := range result.Log {
		out = append(out, OptimizationLogEntry{
			Label:    d.Label,
			Decision: d.Action,
			Reason:   d.Reason,
			Strategy: d.Strategy,
		})
	}

	return out
}

// LabelToTaskID builds the label-to-taskid.json artifact content: every
// surviving label mapped to the task-id it was assigned or replaced by.
func LabelToTaskID(set *task.Set, replacements map[string]string, assignedIDs map[string]string) map[string]string {
	out := make(map[string]string, len(set.Tasks)+len(replacements))

	for label, id := range assignedIDs {
		if _, ok := set.Tasks[label]; ok {
			out[label] = id
		}
	}

	for label, id := range replacements {
		out[label] = id
	}

	return out
}

// TaskGraphArtifact builds the task-graph.json artifact content: every
// surviving task's definition plus its dependency edges, keyed by label,
// serialized deterministically (sorted keys, via encoding/json's natural
// map-key ordering).
func TaskGraphArtifact(set *task.Set) map[string]interface{} {
	out := make(map[string]interface{}, len(set.Tasks))

	for label, t := range set.Tasks {
		out[label] = map[string]interface{}{
			"kind":         t.Kind,
			"task":         t.TaskDefinition,
			"dependencies": t.Dependencies,
			"attributes":   t.Attributes,
		}
	}

	return out
}

// ToRunArtifact builds the to-run.json artifact content: the sorted list
// of labels that will actually be submitted.
func ToRunArtifact(set *task.Set) []string {
	return task.Labels(set.Tasks)
}

// Diff computes the structural difference between two morphed task sets,
// labeled and keyed by task label. Added/removed labels are reported directly; changed labels
// carry the wI2L/jsondiff patch describing what moved.
type Diff struct {
	Added   []string          `json:"added,omitempty"`
	Removed []string          `json:"removed,omitempty"`
	Changed map[string]string `json:"changed,omitempty"`
}

// ComputeDiff compares the task definitions of from and to by label.
func ComputeDiff(from, to *task.Set) (*Diff, error) {
	d := &Diff{Changed: map[string]string{}}

	for _, label := range task.Labels(to.Tasks) {
		if _, ok := from.Tasks[label]; !ok {
			d.Added = append(d.Added, label)
		}
	}

	for _, label := range task.Labels(from.Tasks) {
		if _, ok := to.Tasks[label]; !ok {
			d.Removed = append(d.Removed, label)
			continue
		}

		patch, err := jsondiff.Compare(from.Tasks[label].TaskDefinition, to.Tasks[label].TaskDefinition)
		if err != nil {
			return nil, err
		}

		if len(patch) == 0 {
			continue
		}

		buf, err := json.Marshal(patch)
		if err != nil {
			return nil, err
		}

		d.Changed[label] = string(buf)
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)

	return d, nil
}
