package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaskContext is the built-in "task-context" transform:
// interpolates `{placeholder}` substitutions into the Stub fields named by
// `fields`, reading substitution values from three sources, highest
// precedence first: Parameters, an inline `task-context.from-object` map
// on the stub, and a `task-context.from-file` YAML file relative to the
// kind directory.
func TaskContext(fields []string) Func {
	return Map("task-context", func(cfg *Config, t Stub) (Stub, error) {
		tc, _ := t["task-context"].(map[string]interface{})
		if tc == nil {
			return t, nil
		}

		values, err := taskContextValues(cfg, tc)
		if err != nil {
			return nil, err
		}

		for _, field := range fields {
			loc, err := locateField(t, field)
			if err != nil {
				return nil, err
			}

			if loc == nil {
				continue
			}

			s, ok := loc.get().(string)
			if !ok {
				continue
			}

			loc.set(interpolate(s, values))
		}

		return t, nil
	})
}

// taskContextValues merges the three sources, Parameters winning over the
// inline object, which wins over the file.
func taskContextValues(cfg *Config, tc map[string]interface{}) (map[string]string, error) {
	values := map[string]string{}

	if filePath, ok := tc["from-file"].(string); ok && filePath != "" {
		fileValues, err := loadContextFile(filepath.Join(cfg.KindDir, filePath))
		if err != nil {
			return nil, err
		}

		for k, v := range fileValues {
			values[k] = v
		}
	}

	if obj, ok := tc["from-object"].(map[string]interface{}); ok {
		for k, v := range obj {
			values[k] = fmt.Sprintf("%v", v)
		}
	}

	if cfg.Params != nil {
		for k := range values {
			if v, ok := cfg.Params.Get(k); ok {
				values[k] = fmt.Sprintf("%v", v)
			}
		}

		for _, key := range contextKeys(tc) {
			if v, ok := cfg.Params.Get(key); ok {
				values[key] = fmt.Sprintf("%v", v)
			}
		}
	}

	return values, nil
}

func contextKeys(tc map[string]interface{}) []string {
	fromParams, _ := tc["from-parameters"].([]interface{})

	out := make([]string, 0, len(fromParams))
	for _, v := range fromParams {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

func loadContextFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("task-context from-file %s: %w", path, err)
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("task-context from-file %s: %w", path, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprintf("%v", v)
	}

	return out, nil
}

// interpolate replaces every `{key}` occurrence in s with values[key],
// leaving unknown placeholders untouched.
func interpolate(s string, values map[string]string) string {
	for k, v := range values {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}

	return s
}

// fieldLocation is a narrow get/set pair over a dotted path into a Stub,
// used by task-context and chunking to rewrite a designated field in
// place without re-implementing schema.Locate's by-* awareness.
type fieldLocation struct {
	get func() interface{}
	set func(interface{})
}

func locateField(t Stub, dotted string) (*fieldLocation, error) {
	parts := strings.Split(dotted, ".")

	cur := t

	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]interface{})
		if !ok {
			return nil, nil
		}

		cur = next
	}

	leaf := parts[len(parts)-1]

	return &fieldLocation{
		get: func() interface{} { return cur[leaf] },
		set: func(v interface{}) { cur[leaf] = v },
	}, nil
}
