package morph

import "github.com/taskforge-dev/taskforge/task"

// AddChainOfTrust is the "add-chain-of-trust" morph: it stamps
// the decision task's group id onto every task's wire-format
// `taskGroupId` and, for the labels named by
// opts.RequireChainOfTrust (or every task, when that set is empty), sets
// the `chainOfTrust` feature flag in the worker payload.
func AddChainOfTrust(set *task.Set, opts Options) ([]*task.Task, error) {
	for _, label := range sortedTaskLabels(set) {
		t := set.Tasks[label]

		if t.TaskDefinition == nil {
			t.TaskDefinition = map[string]interface{}{}
		}

		if opts.TaskGroupID != "" {
			t.TaskDefinition["taskGroupId"] = opts.TaskGroupID
		}

		if !requiresChainOfTrust(opts, label) {
			continue
		}

		payload, _ := t.TaskDefinition["payload"].(map[string]interface{})
		if payload == nil {
			payload = map[string]interface{}{}
		}

		features, _ := payload["features"].(map[string]interface{})
		if features == nil {
			features = map[string]interface{}{}
		}

		features["chainOfTrust"] = true
		payload["features"] = features
		t.TaskDefinition["payload"] = payload
	}

	return nil, nil
}

func requiresChainOfTrust(opts Options, label string) bool {
	if len(opts.RequireChainOfTrust) == 0 {
		return true
	}

	return opts.RequireChainOfTrust[label]
}
