// Package merge implements the config deep-merge rule: override
// wins key-by-key, recursing into nested maps, except that a by-*
// conditional on either side is replaced whole rather than merged.
// dario.cat/mergo is used elsewhere (config.FromMap, taskgraph defaults) for ordinary
// struct-level merges; it is not used here because mergo has no concept of
// "this map is a tagged variant, stop recursing" — the by-* short-circuit
// has to be hand-written.
package merge

import "github.com/taskforge-dev/taskforge/schema"

// DeepMerge returns a new map combining base and override.
// Neither input is mutated.
func DeepMerge(base, override map[string]interface{}) map[string]interface{} {
	if base == nil {
		return cloneMap(override)
	}

	out := cloneMap(base)

	for k, overrideVal := range override {
		baseVal, present := out[k]
		if !present {
			out[k] = cloneValue(overrideVal)
			continue
		}

		out[k] = mergeValue(baseVal, overrideVal)
	}

	return out
}

func mergeValue(baseVal, overrideVal interface{}) interface{} {
	if _, ok := schema.AsKeyedBy(overrideVal); ok {
		return cloneValue(overrideVal)
	}

	if _, ok := schema.AsKeyedBy(baseVal); ok {
		return cloneValue(overrideVal)
	}

	baseMap, baseIsMap := baseVal.(map[string]interface{})
	overrideMap, overrideIsMap := overrideVal.(map[string]interface{})

	if baseIsMap && overrideIsMap {
		return DeepMerge(baseMap, overrideMap)
	}

	return cloneValue(overrideVal)
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}

		return out
	default:
		return v
	}
}
