package transform

import (
	"fmt"
	"sort"
)

// Matrix is the built-in "matrix" transform: given
// a matrix of named axes on the stub's `matrix` key, it produces the
// Cartesian product of axis values minus any `exclude` combinations,
// interpolating the chosen tuple into the stub's label and the fields
// named by substitutionFields, and recording the tuple under
// `attributes.matrix`.
func Matrix(substitutionFields []string) Func {
	return FanOut("matrix", func(_ *Config, t Stub) ([]Stub, error) {
		spec, ok := t["matrix"].(map[string]interface{})
		if !ok {
			return []Stub{t}, nil
		}

		axes, err := matrixAxes(spec)
		if err != nil {
			return nil, err
		}

		excludes := matrixExcludes(spec)

		combos := cartesianProduct(axes)

		var out []Stub

		for _, combo := range combos {
			if excluded(combo, excludes) {
				continue
			}

			out = append(out, applyMatrixCombo(t, combo, substitutionFields))
		}

		return out, nil
	})
}

func matrixAxes(spec map[string]interface{}) (map[string][]string, error) {
	out := map[string][]string{}

	for axis, v := range spec {
		if axis == "exclude" {
			continue
		}

		list, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("matrix axis %q must be a list", axis)
		}

		vals := make([]string, 0, len(list))
		for _, e := range list {
			vals = append(vals, fmt.Sprintf("%v", e))
		}

		out[axis] = vals
	}

	return out, nil
}

func matrixExcludes(spec map[string]interface{}) []map[string]string {
	raw, _ := spec["exclude"].([]interface{})

	out := make([]map[string]string, 0, len(raw))

	for _, e := range raw {
		m, ok := e.(map[string]interface{})
		if !ok {
			continue
		}

		entry := make(map[string]string, len(m))
		for k, v := range m {
			entry[k] = fmt.Sprintf("%v", v)
		}

		out = append(out, entry)
	}

	return out
}

// cartesianProduct enumerates every combination of axes, iterating axis
// names in sorted order so results are deterministic run-to-run.
func cartesianProduct(axes map[string][]string) []map[string]string {
	names := make([]string, 0, len(axes))
	for n := range axes {
		names = append(names, n)
	}

	sort.Strings(names)

	combos := []map[string]string{{}}

	for _, name := range names {
		var next []map[string]string

		for _, combo := range combos {
			for _, val := range axes[name] {
				c := make(map[string]string, len(combo)+1)
				for k, v := range combo {
					c[k] = v
				}

				c[name] = val
				next = append(next, c)
			}
		}

		combos = next
	}

	return combos
}

func excluded(combo map[string]string, excludes []map[string]string) bool {
	for _, ex := range excludes {
		match := true

		for k, v := range ex {
			if combo[k] != v {
				match = false
				break
			}
		}

		if match {
			return true
		}
	}

	return false
}

func applyMatrixCombo(t Stub, combo map[string]string, substitutionFields []string) Stub {
	values := make(map[string]string, len(combo))
	for k, v := range combo {
		values["matrix["+k+"]"] = v
	}

	out := deepCopyStub(t)

	if label, ok := out["label"].(string); ok {
		out["label"] = interpolate(label, values)
	}

	for _, field := range substitutionFields {
		loc, err := locateField(out, field)
		if err != nil || loc == nil {
			continue
		}

		if s, ok := loc.get().(string); ok {
			loc.set(interpolate(s, values))
		}
	}

	attrs, _ := out["attributes"].(map[string]interface{})
	if attrs == nil {
		attrs = map[string]interface{}{}
	}

	matrixAttr := make(map[string]interface{}, len(combo))
	for k, v := range combo {
		matrixAttr[k] = v
	}

	attrs["matrix"] = matrixAttr
	out["attributes"] = attrs

	return out
}

func deepCopyStub(t Stub) Stub {
	out := make(Stub, len(t))

	for k, v := range t {
		out[k] = deepCopyStubValue(v)
	}

	return out
}

func deepCopyStubValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, val := range tv {
			out[k] = deepCopyStubValue(val)
		}

		return out
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, val := range tv {
			out[i] = deepCopyStubValue(val)
		}

		return out
	default:
		return v
	}
}
