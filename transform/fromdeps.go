package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taskforge-dev/taskforge/task"
)

// FromDeps is the built-in "from-deps" transform:
// it replicates a Stub once per group of upstream kind-dependency Tasks,
// the grouping strategy named by the stub's `from-deps.group-by` key
// (`single`, `all`, `attribute=<name>`, or a registered GroupByFunc). The
// new Stub's primary kind is the first of `from-deps.kinds` that has a
// Task present in the group; attributes may be copied from that primary
// task via `from-deps.copy-attributes`.
func FromDeps() Func {
	return FanOut("from-deps", func(cfg *Config, t Stub) ([]Stub, error) {
		spec, ok := t["from-deps"].(map[string]interface{})
		if !ok {
			return []Stub{t}, nil
		}

		groups, err := groupKindDependencies(cfg, spec)
		if err != nil {
			return nil, err
		}

		kinds := stringListOf(spec["kinds"])
		copyAttrs := stringListOf(spec["copy-attributes"])

		var out []Stub

		for _, group := range groups {
			primary, primaryLabel := primaryTask(cfg, group, kinds)

			clone := deepCopyStub(t)

			values := map[string]string{}
			if primary != nil {
				values["primary-dependency-label"] = primaryLabel

				for k, v := range primary.Attributes {
					if s, ok := v.(string); ok {
						values[k] = s
					}
				}
			}

			if label, ok := clone["label"].(string); ok {
				clone["label"] = interpolate(label, values)
			}

			deps, _ := clone["dependencies"].(map[string]interface{})
			if deps == nil {
				deps = map[string]interface{}{}
			}

			for _, label := range group {
				deps[label] = label
			}

			clone["dependencies"] = deps

			if primary != nil && len(copyAttrs) > 0 {
				attrs, _ := clone["attributes"].(map[string]interface{})
				if attrs == nil {
					attrs = map[string]interface{}{}
				}

				for _, a := range copyAttrs {
					if v, ok := primary.Attributes[a]; ok {
						attrs[a] = v
					}
				}

				attrs["primary-dependency-label"] = primaryLabel
				clone["attributes"] = attrs
			}

			out = append(out, clone)
		}

		return out, nil
	})
}

// groupKindDependencies partitions the labels of cfg.KindDependencyTasks
// per the from-deps.group-by strategy.
func groupKindDependencies(cfg *Config, spec map[string]interface{}) ([][]string, error) {
	groupBy, _ := spec["group-by"].(string)
	if groupBy == "" {
		groupBy = "all"
	}

	if attr, ok := strings.CutPrefix(groupBy, "attribute="); ok {
		return groupByAttribute(cfg, attr), nil
	}

	fn, ok := GroupByRegistry.Get(groupBy)
	if !ok {
		return nil, fmt.Errorf("from-deps: unknown group-by strategy %q", groupBy)
	}

	return fn(cfg), nil
}

func groupBySingle(cfg *Config) [][]string {
	var groups [][]string

	for _, label := range sortedLabels(cfg.KindDependencyTasks) {
		groups = append(groups, []string{label})
	}

	return groups
}

func groupByAll(cfg *Config) [][]string {
	labels := sortedLabels(cfg.KindDependencyTasks)
	if len(labels) == 0 {
		return nil
	}

	return [][]string{labels}
}

// groupByAttribute is the `attribute=<name>` strategy: every dependency Task sharing a value for attrs[name] lands in the
// same group.
func groupByAttribute(cfg *Config, attr string) [][]string {
	byValue := map[string][]string{}

	for _, label := range sortedLabels(cfg.KindDependencyTasks) {
		t := cfg.KindDependencyTasks[label]

		v, ok := t.Attributes[attr]
		if !ok {
			continue
		}

		key := fmt.Sprintf("%v", v)
		byValue[key] = append(byValue[key], label)
	}

	keys := make([]string, 0, len(byValue))
	for k := range byValue {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	groups := make([][]string, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, byValue[k])
	}

	return groups
}

func sortedLabels(tasks map[string]*task.Task) []string {
	out := make([]string, 0, len(tasks))
	for l := range tasks {
		out = append(out, l)
	}

	sort.Strings(out)

	return out
}

// primaryTask picks the first entry of the from-deps.kinds list that has
// a Task present in group.
func primaryTask(cfg *Config, group []string, kinds []string) (*task.Task, string) {
	byLabel := map[string]*task.Task{}
	for _, l := range group {
		byLabel[l] = cfg.KindDependencyTasks[l]
	}

	for _, kind := range kinds {
		for _, label := range group {
			t := byLabel[label]
			if t != nil && t.Kind == kind {
				return t, label
			}
		}
	}

	if len(group) > 0 {
		return byLabel[group[0]], group[0]
	}

	return nil, ""
}

func stringListOf(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}

	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}

	return out
}
