// Package kind implements the Kind Loader: kind.yml parsing,
// the two built-in loaders, and kind-dependency topological ordering.
package kind

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taskforge-dev/taskforge/internal/errors"
	"github.com/taskforge-dev/taskforge/internal/merge"
)

// builtinRunTransform and builtinTaskTransform are the implicit
// prepend/append references the Default loader installs.
const (
	builtinRunTransform  = "taskforge.transforms.run:transforms"
	builtinTaskTransform = "taskforge.transforms.task:transforms"

	defaultLoader = "taskforge.loader.default:loader"
)

// Kind is a single kind.yml, loaded and otherwise immutable.
type Kind struct {
	Name             string
	Dir              string
	Loader           string
	Transforms       []string
	KindDependencies []string
	TaskDefaults     map[string]interface{}
	Tasks            map[string]interface{}
	TasksFrom        []string

	// Config is the raw decoded kind.yml, handed to transforms that
	// consult kind-level settings beyond the recognized keys.
	Config map[string]interface{}
}

// rawKindFile mirrors the recognized top-level keys of kind.yml.
type rawKindFile struct {
	Loader           string                 `yaml:"loader"`
	Transforms       []string               `yaml:"transforms"`
	KindDependencies []string               `yaml:"kind-dependencies"`
	TaskDefaults     map[string]interface{} `yaml:"task-defaults"`
	Tasks            map[string]interface{} `yaml:"tasks"`
	TasksFrom        []string               `yaml:"tasks-from"`
}

// Load reads <dir>/kind.yml and builds a Kind named name.
func Load(name, dir string) (*Kind, error) {
	path := filepath.Join(dir, "kind.yml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigError{Path: path, Reason: err.Error()}
	}

	var raw rawKindFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &errors.ConfigError{Path: path, Reason: err.Error()}
	}

	rawMap := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, &errors.ConfigError{Path: path, Reason: err.Error()}
	}

	loader := raw.Loader
	if loader == "" {
		loader = defaultLoader
	}

	transforms := raw.Transforms
	if loader == defaultLoader {
		transforms = withDefaultTransforms(transforms)
	}

	taskDefaults := raw.TaskDefaults
	if taskDefaults == nil {
		taskDefaults = map[string]interface{}{}
	}

	tasks := raw.Tasks
	if tasks == nil {
		tasks = map[string]interface{}{}
	}

	return &Kind{
		Name:             name,
		Dir:              dir,
		Loader:           loader,
		Transforms:       transforms,
		KindDependencies: raw.KindDependencies,
		TaskDefaults:     taskDefaults,
		Tasks:            tasks,
		TasksFrom:        raw.TasksFrom,
		Config:           rawMap,
	}, nil
}

// withDefaultTransforms prepends the built-in "run" transform and appends
// the built-in "task" transform, unless already present.
func withDefaultTransforms(transforms []string) []string {
	out := make([]string, 0, len(transforms)+2)

	if !containsString(transforms, builtinRunTransform) {
		out = append(out, builtinRunTransform)
	}

	out = append(out, transforms...)

	if !containsString(transforms, builtinTaskTransform) {
		out = append(out, builtinTaskTransform)
	}

	return out
}

func containsString(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}

	return false
}

// LoadStubs runs the Transform/Default loader behavior: it
// enumerates tasks plus tasks-from files, deep-merging each entry over
// task-defaults, and returns the raw task stubs keyed by name.
func (k *Kind) LoadStubs() (map[string]map[string]interface{}, error) {
	out := map[string]map[string]interface{}{}

	for name, stub := range k.Tasks {
		merged, err := mergeStub(k.TaskDefaults, stub, name)
		if err != nil {
			return nil, err
		}

		out[name] = withLabel(k.Name, name, merged)
	}

	files, err := k.resolveTasksFrom()
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, &errors.LoaderError{Kind: k.Name, Reason: err.Error()}
		}

		var extra rawKindFile
		if err := yaml.Unmarshal(data, &extra); err != nil {
			return nil, &errors.LoaderError{Kind: k.Name, Reason: fmt.Sprintf("parsing %s: %s", f, err)}
		}

		defaults := k.TaskDefaults
		if extra.TaskDefaults != nil {
			defaults = merge.DeepMerge(k.TaskDefaults, extra.TaskDefaults)
		}

		for name, stub := range extra.Tasks {
			if _, dup := out[name]; dup {
				return nil, &errors.LoaderError{Kind: k.Name, Reason: fmt.Sprintf("duplicate task name %q across tasks-from files", name)}
			}

			merged, err := mergeStub(defaults, stub, name)
			if err != nil {
				return nil, err
			}

			out[name] = withLabel(k.Name, name, merged)
		}
	}

	return out, nil
}

func mergeStub(defaults map[string]interface{}, stub interface{}, name string) (map[string]interface{}, error) {
	m, ok := stub.(map[string]interface{})
	if !ok {
		if stub == nil {
			m = map[string]interface{}{}
		} else {
			return nil, fmt.Errorf("task %q: stub is not a mapping", name)
		}
	}

	return merge.DeepMerge(defaults, m), nil
}

// withLabel stamps the conventional "<kind>-<name>" label onto a stub, unless the stub already
// names one explicitly.
func withLabel(kindName, taskName string, stub map[string]interface{}) map[string]interface{} {
	if _, ok := stub["label"]; ok {
		return stub
	}

	stub["label"] = kindName + "-" + taskName

	return stub
}
