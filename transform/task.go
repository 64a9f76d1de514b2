package transform

import (
	"fmt"
)

// Task is the built-in "task" transform: it is the last step
// of the Default loader's pipeline, turning the high-level stub into the
// wire-format `task` payload — resolving the `worker-type` alias through
// GraphConfig.Workers, and copying priority, retry, timeouts,
// expires-after, and treeherder metadata into their wire-format
// locations. Everything it does not recognize on the stub is left alone
// for a later transform or morph to touch.
func Task() Func {
	return Map("task", func(cfg *Config, t Stub) (Stub, error) {
		def, _ := t["task"].(map[string]interface{})
		if def == nil {
			def = map[string]interface{}{}
		}

		if err := resolveWorkerType(cfg, t, def); err != nil {
			return nil, err
		}

		if priority, ok := t["priority"]; ok {
			def["priority"] = priority
		} else if cfg.GraphConfig != nil {
			def["priority"] = cfg.GraphConfig.TaskPriority
		}

		if retry, ok := t["retry"]; ok {
			def["retries"] = retry
		}

		copyTimeouts(t, def)

		if expires, ok := t["expires-after"]; ok {
			def["expires"] = expires
		}

		if th, ok := t["treeherder"]; ok {
			extra, _ := def["extra"].(map[string]interface{})
			if extra == nil {
				extra = map[string]interface{}{}
			}

			extra["treeherder"] = th
			def["extra"] = extra
		}

		def["dependencies"] = dependencyIDs(t)

		t["task"] = def

		return t, nil
	})
}

func resolveWorkerType(cfg *Config, t, def Stub) error {
	worker, _ := t["worker-type"].(string)
	if worker == "" {
		return nil
	}

	if cfg.GraphConfig == nil {
		def["workerType"] = worker
		return nil
	}

	wd, ok := cfg.GraphConfig.Workers[worker]
	if !ok {
		def["workerType"] = worker
		return nil
	}

	def["provisionerId"] = wd.Provisioner
	def["workerType"] = wd.WorkerType
	def["workerImplementation"] = wd.Implementation

	if wd.OS != "" {
		extra, _ := def["extra"].(map[string]interface{})
		if extra == nil {
			extra = map[string]interface{}{}
		}

		extra["os"] = wd.OS
		def["extra"] = extra
	}

	return nil
}

func copyTimeouts(t, def Stub) {
	timeouts, ok := t["timeouts"].(map[string]interface{})
	if !ok {
		return
	}

	payload, _ := def["payload"].(map[string]interface{})
	if payload == nil {
		payload = map[string]interface{}{}
	}

	for k, v := range timeouts {
		payload[k] = v
	}

	def["payload"] = payload
}

// dependencyIDs returns the sorted, deduplicated list of dependency labels
// the wire-format `dependencies` array carries.
func dependencyIDs(t Stub) []string {
	deps, _ := t["dependencies"].(map[string]interface{})

	seen := map[string]bool{}

	out := []string{}

	for _, v := range deps {
		label := fmt.Sprintf("%v", v)

		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}

	return sortStrings(out)
}

func sortStrings(s []string) []string {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}

	return s
}
