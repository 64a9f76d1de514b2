package task

import "fmt"

// FromStub freezes a fully-transformed stub (the shape the built-in "task"
// transform leaves behind) into a *Task. From here on a task is only
// mutated by the optimizer's dependency rewrite and by morphs.
func FromStub(kind string, stub map[string]interface{}) (*Task, error) {
	label, _ := stub["label"].(string)
	if label == "" {
		return nil, fmt.Errorf("task stub for kind %q has no label", kind)
	}

	t := &Task{
		Kind:  kind,
		Label: label,
	}

	t.Description, _ = stub["description"].(string)
	t.Attributes = stringMap(stub["attributes"])
	t.Dependencies = stringStringMap(stub["dependencies"])
	t.SoftDependencies = stringStringMap(stub["soft-dependencies"])
	t.IfDependencies = stringSlice(stub["if-dependencies"])
	t.Optimization = stringMap(stub["optimization"])
	t.TaskDefinition = stringMap(stub["task"])

	return t, nil
}

// ToStub is the inverse of FromStub, used when a transform needs to
// re-enter the Stub pipeline (e.g. a morph operating on already-resolved
// Tasks through the same field conventions).
func ToStub(t *Task) map[string]interface{} {
	return map[string]interface{}{
		"label":             t.Label,
		"description":       t.Description,
		"attributes":        toIfaceMap(t.Attributes),
		"dependencies":      toIfaceMap(t.Dependencies),
		"soft-dependencies": toIfaceMap(t.SoftDependencies),
		"if-dependencies":   toIfaceSlice(t.IfDependencies),
		"optimization":      toIfaceMap(t.Optimization),
		"task":              t.TaskDefinition,
	}
}

func stringMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func stringStringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	out := make(map[string]string, len(m))

	for k, val := range m {
		s, _ := val.(string)
		out[k] = s
	}

	return out
}

func stringSlice(v interface{}) []string {
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

func toIfaceMap[V any](m map[string]V) map[string]interface{} {
	if m == nil {
		return nil
	}

	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func toIfaceSlice(s []string) []interface{} {
	if s == nil {
		return nil
	}

	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}

	return out
}
